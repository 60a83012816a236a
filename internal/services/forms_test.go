package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/saj/internal/models"
)

func TestCanonicalValues(t *testing.T) {
	values, err := CanonicalValues(ClientFields, "Jane Doe", map[string]string{"CNPJ": "12345678000199", "tel": "1199"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Jane Doe", "cpf": "12345678000199", "phone": "1199"}, values)

	_, err = CanonicalValues(ClientFields, "Jane", map[string]string{"nome": "Jane Doe"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Campo 'name' informado mais de uma vez"}, ve.Messages)

	_, err = CanonicalValues(ClientFields, "", map[string]string{"cpf": "1", "doc": "2", "color": "red"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Campo desconhecido 'color'", "Campo 'cpf' informado mais de uma vez"}, ve.Messages)
}

func TestApplyClient(t *testing.T) {
	c, err := ApplyClient(models.Client{}, map[string]string{"name": " Jane Doe ", "cpf": "12345678900"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "123.456.789-00", c.CpfCnpj)

	// Only the given keys change
	c, err = ApplyClient(c, map[string]string{"email": "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@example.com", c.Email)

	_, err = ApplyClient(models.Client{}, map[string]string{"cpf": "123"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"CPF/CNPJ deve ter 11 ou 14 dígitos", "Nome é obrigatório", "CPF/CNPJ é obrigatório"}, ve.Messages)
}

func TestApplyProcess(t *testing.T) {
	lk := Lookups{Clients: clients}

	p, err := ApplyProcess(models.Process{}, map[string]string{"number": "0001", "client": "joão"}, lk)
	require.NoError(t, err)
	assert.Equal(t, "c2", p.ClientID)
	assert.Equal(t, models.StatusInProgress, p.Status)

	p, err = ApplyProcess(p, map[string]string{"status": "susp"}, lk)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, p.Status)

	_, err = ApplyProcess(p, map[string]string{"client": "jane", "status": "xyz"}, lk)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Messages, 2)
	assert.Equal(t, "Cliente 'jane' é ambíguo, seja mais específico", ve.Messages[0])
	assert.Contains(t, ve.Messages[1], "Status inválido 'xyz'")
}

func TestApplyAppointment(t *testing.T) {
	lk := Lookups{Clients: clients, Users: users, Processes: processes}
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	a, err := ApplyAppointment(models.Appointment{}, map[string]string{
		"when":    "25/10/2026 14:00",
		"lawyer":  "mariana",
		"client":  "Jane Doe",
		"process": "0001234",
	}, lk, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-25T14:00:00.000Z", a.DateTime)
	assert.Equal(t, models.DefaultAppointmentMinutes, a.DurationMinutes)
	assert.Equal(t, "u2", a.LawyerID)
	assert.Equal(t, "c1", a.ClientID)
	assert.Equal(t, "p1", a.ProcessID)

	a, err = ApplyAppointment(a, map[string]string{"when": "amanhã 09:30", "duration": "30", "process": "-"}, lk, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19T09:30:00.000Z", a.DateTime)
	assert.Equal(t, 30, a.DurationMinutes)
	assert.Empty(t, a.ProcessID)

	_, err = ApplyAppointment(a, map[string]string{"duration": "10", "lawyer": "nobody"}, lk, now)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Advogado 'nobody' não encontrado", "Duração deve ser no mínimo 15"}, ve.Messages)

	_, err = ApplyAppointment(a, map[string]string{"when": "someday"}, lk, now)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Data/Hora inválida 'someday'"}, ve.Messages)
}

func TestAppointmentValuesRoundTrip(t *testing.T) {
	lk := Lookups{Clients: clients, Users: users, Processes: processes}
	a := models.Appointment{ID: "a1", DateTime: "2026-10-25T14:00:00.000Z", DurationMinutes: 45, LawyerID: "u2", ClientID: "c2", ProcessID: "p2"}

	values := AppointmentValues(a, lk)
	assert.Equal(t, "Mariana Costa", values["lawyer"])
	assert.Equal(t, "João da Silva", values["client"])
	assert.Equal(t, "0009876-54.2025", values["process"])
	assert.Equal(t, "45", values["duration"])

	back, err := ApplyAppointment(a, values, lk, time.Now())
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestApplyUser(t *testing.T) {
	u, err := ApplyUser(models.User{ID: "u2", Username: "mariana", FullName: "Mariana"}, map[string]string{"name": "Mariana Costa", "password": ""})
	require.NoError(t, err)
	assert.Equal(t, "Mariana Costa", u.FullName)
	assert.Empty(t, u.Password)

	assert.Empty(t, UserValues(models.User{Password: "secret"})["password"])
}
