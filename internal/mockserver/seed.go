package mockserver

import (
	"fmt"
	"time"

	"github.com/balkashynov/saj/internal/models"
)

// SeedDemo fills the store with a small office: one lawyer, three clients,
// two processes and a few appointments over the next days
func (s *Server) SeedDemo(now time.Time) error {
	lawyer, err := s.store.createUser(models.User{
		Username: "mariana",
		Password: "advogada123",
		FullName: "Mariana Costa",
	}, RoleLawyer)
	if err != nil {
		return fmt.Errorf("failed to seed lawyer: %w", err)
	}

	jane := s.store.createClient(models.Client{Name: "Jane Doe", CpfCnpj: "123.456.789-00", Email: "jane@example.com", Phone: "(11) 98765-4321"})
	acme := s.store.createClient(models.Client{Name: "Acme Comércio Ltda", CpfCnpj: "12.345.678/0001-99", Email: "juridico@acme.com.br"})
	s.store.createClient(models.Client{Name: "João da Silva", CpfCnpj: "987.654.321-00", Phone: "(21) 3333-4444"})

	labor, err := s.store.createProcess(models.Process{
		Number:      "0001234-56.2026.8.26.0100",
		ClientID:    jane.ID,
		Description: "Reclamação trabalhista",
		Status:      models.StatusInProgress,
	})
	if err != nil {
		return err
	}
	if _, err := s.store.createProcess(models.Process{
		Number:      "0009876-54.2025.8.26.0001",
		ClientID:    acme.ID,
		Description: "Cobrança de duplicatas",
		Status:      models.StatusSuspended,
	}); err != nil {
		return err
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	appointments := []models.Appointment{
		{DateTime: day.Add(15 * time.Hour).UTC().Format(time.RFC3339), DurationMinutes: 60, LawyerID: lawyer.ID, ClientID: jane.ID, ProcessID: labor.ID, Description: "Preparação para audiência"},
		{DateTime: day.AddDate(0, 0, 2).Add(10 * time.Hour).UTC().Format(time.RFC3339), DurationMinutes: 30, LawyerID: lawyer.ID, ClientID: acme.ID, Description: "Reunião inicial"},
		{DateTime: day.AddDate(0, 0, 9).Add(14 * time.Hour).UTC().Format(time.RFC3339), DurationMinutes: 45, LawyerID: lawyer.ID, ClientID: jane.ID, ProcessID: labor.ID, Description: "Audiência de conciliação"},
	}
	for _, a := range appointments {
		if _, err := s.store.createAppointment(a); err != nil {
			return fmt.Errorf("failed to seed appointment: %w", err)
		}
	}

	s.log.Info().Msg("demo data seeded")
	return nil
}
