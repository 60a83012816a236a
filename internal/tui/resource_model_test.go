package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/services"
)

type fakeAdapter struct {
	names     []string
	fetchErr  error
	saveErr   error
	submitted []map[string]string
	deleted   []string
}

func (a *fakeAdapter) Route() guard.Route       { return guard.RouteClients }
func (a *fakeAdapter) Noun() string             { return "cliente" }
func (a *fakeAdapter) Fields() []services.Field { return services.ClientFields }
func (a *fakeAdapter) Len() int                 { return len(a.names) }
func (a *fakeAdapter) ID(i int) string          { return "id-" + a.names[i] }
func (a *fakeAdapter) Label(i int) string       { return a.names[i] }
func (a *fakeAdapter) Apply(data any)           { a.names = data.([]string) }

func (a *fakeAdapter) Columns(width int) []table.Column {
	return columns(width, []string{"Nome"}, []int{1})
}

func (a *fakeAdapter) Fetch() fetchFunc {
	names, err := append([]string(nil), a.names...), a.fetchErr
	return func(context.Context) (any, error) {
		if err != nil {
			return nil, err
		}
		return names, nil
	}
}

func (a *fakeAdapter) Rows() []table.Row {
	rows := make([]table.Row, len(a.names))
	for i, n := range a.names {
		rows[i] = table.Row{n}
	}
	return rows
}

func (a *fakeAdapter) Values(i int) map[string]string {
	if i < 0 {
		return map[string]string{}
	}
	return map[string]string{"name": a.names[i], "cpf": "123.456.789-00"}
}

func (a *fakeAdapter) Submit(id string, values map[string]string) (saveFunc, error) {
	if values["name"] == "bad" {
		return nil, &models.ValidationError{Messages: []string{"Nome inválido"}}
	}
	a.submitted = append(a.submitted, values)
	return func(context.Context) error { return a.saveErr }, nil
}

func (a *fakeAdapter) Delete(id string) saveFunc {
	return func(context.Context) error {
		a.deleted = append(a.deleted, id)
		return a.saveErr
	}
}

func loadedResource(t *testing.T, a *fakeAdapter) ResourceModel {
	t.Helper()
	m := NewResourceModel(context.Background(), a, NewShimmerState(ShimmerConfig{}))
	require.True(t, m.Loading())

	loaded := findMsg[resourceLoadedMsg](t, drain(m.Init()))
	sc, _ := m.Update(loaded)
	return sc.(ResourceModel)
}

func send(t *testing.T, m ResourceModel, msgs ...tea.Msg) (ResourceModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var sc screen
		sc, cmd = m.Update(msg)
		m = sc.(ResourceModel)
	}
	return m, cmd
}

func TestResourceLoads(t *testing.T) {
	m := loadedResource(t, &fakeAdapter{names: []string{"Jane Doe", "João da Silva"}})
	assert.False(t, m.Loading())
	assert.Equal(t, []int{0, 1}, m.visible)
	assert.Contains(t, m.View(80, 20), "Jane Doe")
}

func TestResourceLoadFailure(t *testing.T) {
	a := &fakeAdapter{fetchErr: &api.RequestError{Method: "GET", Path: "/clients", Status: 500}}
	m := loadedResource(t, a)
	assert.Equal(t, msgLoadFailed, m.err)
	assert.False(t, m.Loading())
	assert.Contains(t, m.View(80, 20), msgLoadFailed)
}

func TestResourceIgnoresOtherRoutes(t *testing.T) {
	m := loadedResource(t, &fakeAdapter{names: []string{"Jane Doe"}})
	m, _ = send(t, m, resourceLoadedMsg{route: guard.RouteProcesses, err: errors.New("boom")})
	assert.Empty(t, m.err)
}

func TestResourceFilter(t *testing.T) {
	m := loadedResource(t, &fakeAdapter{names: []string{"Jane Doe", "João da Silva", "Jane Roe"}})

	m, _ = send(t, m, keyPress("/"))
	assert.True(t, m.Capturing())
	m, _ = send(t, m, keyPress("joao"))
	assert.Equal(t, []int{1}, m.visible)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Capturing())
	i, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, 1, i)

	m, _ = send(t, m, keyPress("/"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, []int{0, 1, 2}, m.visible)
}

func TestResourceCreate(t *testing.T) {
	a := &fakeAdapter{names: []string{"Jane Doe"}}
	m := loadedResource(t, a)

	m, _ = send(t, m, keyPress("n"))
	require.True(t, m.formOpen)
	assert.Equal(t, "Novo cliente", m.form.title)

	m, _ = send(t, m, keyPress("Maria"), tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "CPF/CNPJ é obrigatório", m.form.err)
	assert.Empty(t, a.submitted)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyTab}, keyPress("12345678900"), tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, a.submitted, 1)
	assert.Equal(t, "Maria", a.submitted[0]["name"])
	assert.Equal(t, "12345678900", a.submitted[0]["cpf"])
	assert.True(t, m.saving)

	saved := findMsg[resourceSavedMsg](t, drain(cmd))
	m, cmd = send(t, m, saved)
	assert.False(t, m.formOpen)
	assert.Equal(t, "Cliente salvo", m.flash)
	assert.True(t, m.loading)
	findMsg[resourceLoadedMsg](t, drain(cmd))
}

func TestResourceEditSendsChangedFields(t *testing.T) {
	a := &fakeAdapter{names: []string{"Jane Doe"}}
	m := loadedResource(t, a)

	m, _ = send(t, m, keyPress("e"))
	require.True(t, m.formOpen)
	assert.Equal(t, "id-Jane Doe", m.editID)

	m, _ = send(t, m, keyPress("!"), tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, a.submitted, 1)
	assert.Equal(t, map[string]string{"name": "Jane Doe!"}, a.submitted[0])
}

func TestResourceSaveFailureKeepsFormOpen(t *testing.T) {
	a := &fakeAdapter{names: []string{"Jane Doe"}, saveErr: &api.RequestError{Method: "PUT", Path: "/clients/1", Status: 500}}
	m := loadedResource(t, a)

	m, _ = send(t, m, keyPress("e"), keyPress("x"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = send(t, m, findMsg[resourceSavedMsg](t, drain(cmd)))
	assert.True(t, m.formOpen)
	assert.Equal(t, "Erro ao salvar cliente", m.form.err)
}

func TestResourceValidationErrorStaysInForm(t *testing.T) {
	a := &fakeAdapter{}
	m := loadedResource(t, a)

	m, _ = send(t, m, keyPress("n"), keyPress("bad"), tea.KeyMsg{Type: tea.KeyTab}, keyPress("1"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nome inválido", m.form.err)
	assert.False(t, m.saving)
}

func TestResourceDelete(t *testing.T) {
	a := &fakeAdapter{names: []string{"Jane Doe", "Jane Roe"}}
	m := loadedResource(t, a)

	m, _ = send(t, m, keyPress("d"))
	require.True(t, m.confirmOpen)
	m, _ = send(t, m, keyPress("n"))
	assert.False(t, m.confirmOpen)
	assert.Empty(t, a.deleted)

	m, cmd := send(t, m, keyPress("d"), keyPress("s"))
	saved := findMsg[resourceSavedMsg](t, drain(cmd))
	assert.Equal(t, []string{"id-Jane Doe"}, a.deleted)
	assert.True(t, saved.deleted)

	m, _ = send(t, m, saved)
	assert.Equal(t, "Cliente excluído", m.flash)
}

func TestResourceDeleteConflict(t *testing.T) {
	a := &fakeAdapter{
		names:   []string{"Jane Doe"},
		saveErr: &api.RequestError{Method: "DELETE", Path: "/clients/1", Status: 409, Message: "exclua os PROCESSOS primeiro"},
	}
	m := loadedResource(t, a)

	m, cmd := send(t, m, keyPress("d"), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(t, m, findMsg[resourceSavedMsg](t, drain(cmd)))
	assert.Equal(t, "Erro ao excluir cliente: exclua os PROCESSOS primeiro", m.err)
}

func TestResourceDeleteFailureStillReloads(t *testing.T) {
	a := &fakeAdapter{
		names:   []string{"Ghost", "Jane Doe"},
		saveErr: &api.RequestError{Method: "DELETE", Path: "/clients/id-Ghost", Status: 404},
	}
	m := loadedResource(t, a)

	m, cmd := send(t, m, keyPress("d"), keyPress("s"))
	// someone else removed the record meanwhile
	a.names = []string{"Jane Doe"}

	m, cmd = send(t, m, findMsg[resourceSavedMsg](t, drain(cmd)))
	assert.Equal(t, []string{"id-Ghost"}, a.deleted)
	assert.Equal(t, "Erro ao excluir cliente", m.err)
	require.NotNil(t, cmd)

	m, _ = send(t, m, findMsg[resourceLoadedMsg](t, drain(cmd)))
	assert.False(t, m.Loading())
	assert.Equal(t, "Erro ao excluir cliente", m.err)
	assert.Equal(t, []int{0}, m.visible)
	assert.NotContains(t, m.View(80, 20), "Ghost")

	// the next clean load clears the message
	m, _ = send(t, m, findMsg[resourceLoadedMsg](t, drain(m.fetch())))
	assert.Empty(t, m.err)
}

func TestFormModel(t *testing.T) {
	f := NewFormModel("Editar cliente", services.ClientFields, map[string]string{"name": "Jane", "cpf": "123.456.789-00"}, true)
	assert.False(t, f.HasChanges())
	assert.Empty(t, f.Values())

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, f.cancelled)

	f = NewFormModel("Editar cliente", services.ClientFields, map[string]string{"name": "Jane", "cpf": "123.456.789-00"}, true)
	f, _ = f.Update(keyPress("t"))
	assert.Equal(t, map[string]string{"name": "Janet"}, f.Values())

	// Esc with changes asks first; "n" discards
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, f.promptOpen)
	assert.Contains(t, f.View(), "Salvar alterações?")
	f, _ = f.Update(keyPress("n"))
	assert.True(t, f.cancelled)
	assert.False(t, f.submitted)

	// Enter on the last field submits
	f = NewFormModel("Novo cliente", services.ClientFields, map[string]string{"name": "Jane", "cpf": "1"}, false)
	for range services.ClientFields {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	assert.True(t, f.submitted)
	assert.Equal(t, map[string]string{"name": "Jane", "cpf": "1", "email": "", "phone": ""}, f.Values())
}
