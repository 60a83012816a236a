package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/saj/internal/models"
)

var (
	clients = []models.Client{
		{ID: "c1", Name: "Jane Doe", CpfCnpj: "123.456.789-00", Email: "jane@example.com"},
		{ID: "c2", Name: "João da Silva", CpfCnpj: "987.654.321-00"},
		{ID: "c3", Name: "Jane Roe", CpfCnpj: "12.345.678/0001-99"},
	}
	users = []models.User{
		{ID: "u1", Username: "admin", FullName: "Administrador"},
		{ID: "u2", Username: "mariana", FullName: "Mariana Costa"},
	}
	processes = []models.Process{
		{ID: "p1", Number: "0001234-56.2026", ClientID: "c1", Status: models.StatusInProgress, Description: "Reclamação trabalhista"},
		{ID: "p2", Number: "0009876-54.2025", ClientID: "c2", Status: models.StatusSuspended},
		{ID: "p3", Number: "0005555-00.2024", ClientID: "gone", Status: models.StatusInProgress},
	}
)

func TestNameLookups(t *testing.T) {
	assert.Equal(t, "Jane Doe", ClientName(clients, "c1"))
	assert.Equal(t, "Cliente não encontrado", ClientName(clients, "nope"))
	assert.Equal(t, "Jane Doe", AppointmentClientName(clients, "c1"))
	assert.Equal(t, "-", AppointmentClientName(clients, "nope"))
	assert.Equal(t, "Mariana Costa", LawyerName(users, "u2"))
	assert.Equal(t, "-", LawyerName(users, "nope"))
	assert.Equal(t, "0001234-56.2026", ProcessNumber(processes, "p1"))
	assert.Equal(t, "-", ProcessNumber(processes, ""))
}

func TestResolveClientID(t *testing.T) {
	id, err := ResolveClientID(clients, "c2")
	require.NoError(t, err)
	assert.Equal(t, "c2", id)

	id, err = ResolveClientID(clients, "joao da silva")
	require.NoError(t, err)
	assert.Equal(t, "c2", id)

	id, err = ResolveClientID(clients, "12345678000199")
	require.NoError(t, err)
	assert.Equal(t, "c3", id)

	_, err = ResolveClientID(clients, "jane")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = ResolveClientID(clients, "maria")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = ResolveClientID(clients, "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestResolveUserAndProcess(t *testing.T) {
	id, err := ResolveUserID(users, "MARIANA")
	require.NoError(t, err)
	assert.Equal(t, "u2", id)

	id, err = ResolveUserID(users, "costa")
	require.NoError(t, err)
	assert.Equal(t, "u2", id)

	id, err = ResolveProcessID(processes, "0009876")
	require.NoError(t, err)
	assert.Equal(t, "p2", id)

	_, err = ResolveProcessID(processes, "000")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestSearch(t *testing.T) {
	result := Search("jane", clients, processes)
	require.Len(t, result.Clients, 2)
	assert.Len(t, result.Processes, 1, "process of Jane Doe matches on client name")
	assert.Equal(t, 3, result.Count())

	result = Search("Jane Doe", clients, processes)
	require.NotEmpty(t, result.Clients)
	assert.Equal(t, "c1", result.Clients[0].Client.ID)
	assert.Equal(t, matchExact, result.Clients[0].Rank)

	result = Search("trabalhista", clients, processes)
	require.Len(t, result.Processes, 1)
	assert.Equal(t, "p1", result.Processes[0].Process.ID)

	assert.Zero(t, Search("  ", clients, processes).Count())
}

func TestStats(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, loc)
	appointments := []models.Appointment{
		{ID: "a1", DateTime: "2026-10-18T12:00:00Z"}, // today 09:00 local
		{ID: "a2", DateTime: "2026-10-18T20:00:00Z"}, // today 17:00 local
		{ID: "a3", DateTime: "2026-10-22T13:00:00Z"}, // this week
		{ID: "a4", DateTime: "2026-11-30T13:00:00Z"}, // later
		{ID: "a5", DateTime: "2026-10-17T13:00:00Z"}, // yesterday
		{ID: "a6", DateTime: "not a date"},
	}

	stats := Stats(clients, processes, appointments, now)
	assert.Equal(t, models.DashboardStats{
		TotalClients:      3,
		ActiveProcesses:   2,
		TodayAppointments: 2,
		WeekAppointments:  3,
	}, stats)

	upcoming := Upcoming(appointments, now, 2)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "a2", upcoming[0].ID)
	assert.Equal(t, "a3", upcoming[1].ID)
}

func TestGroupByDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	appointments := []models.Appointment{
		{ID: "late", DateTime: "2026-10-19T20:00:00Z"},
		{ID: "early", DateTime: "2026-10-19T12:00:00Z"},
		{ID: "next", DateTime: "2026-10-20T12:00:00Z"},
	}

	days, groups := GroupByDay(appointments, loc)
	require.Len(t, days, 2)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, loc), days[0])
	ids := []string{groups[days[0]][0].ID, groups[days[0]][1].ID}
	assert.Equal(t, []string{"early", "late"}, ids)
	assert.Equal(t, "next", groups[days[1]][0].ID)
}
