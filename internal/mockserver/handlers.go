package mockserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/models"
)

// bind decodes and validates a request body
func bind[T any](c echo.Context) (T, error) {
	var body T
	if err := c.Bind(&body); err != nil {
		return body, echo.NewHTTPError(http.StatusBadRequest, "Requisição inválida")
	}
	if err := c.Validate(&body); err != nil {
		return body, err
	}
	return body, nil
}

// --- Clients ---

func (s *Server) listClients(c echo.Context) error {
	return respond(c, http.StatusOK, "Clientes listados com sucesso", s.store.listClients())
}

func (s *Server) getClient(c echo.Context) error {
	client, err := s.store.getClient(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cliente encontrado", client)
}

func (s *Server) createClient(c echo.Context) error {
	body, err := bind[models.Client](c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Cliente criado com sucesso", s.store.createClient(body))
}

func (s *Server) updateClient(c echo.Context) error {
	body, err := bind[models.Client](c)
	if err != nil {
		return err
	}
	client, err := s.store.updateClient(c.Param("id"), body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cliente atualizado com sucesso", client)
}

func (s *Server) deleteClient(c echo.Context) error {
	if err := s.store.deleteClient(c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cliente excluído com sucesso", nil)
}

// --- Processes ---

func (s *Server) listProcesses(c echo.Context) error {
	return respond(c, http.StatusOK, "Processos listados com sucesso", s.store.listProcesses())
}

func (s *Server) getProcess(c echo.Context) error {
	process, err := s.store.getProcess(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Processo encontrado", process)
}

func (s *Server) createProcess(c echo.Context) error {
	body, err := bind[models.Process](c)
	if err != nil {
		return err
	}
	process, err := s.store.createProcess(body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Processo criado com sucesso", process)
}

func (s *Server) updateProcess(c echo.Context) error {
	body, err := bind[models.Process](c)
	if err != nil {
		return err
	}
	process, err := s.store.updateProcess(c.Param("id"), body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Processo atualizado com sucesso", process)
}

func (s *Server) deleteProcess(c echo.Context) error {
	if err := s.store.deleteProcess(c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Processo excluído com sucesso", nil)
}

// --- Appointments ---

func (s *Server) listAppointments(c echo.Context) error {
	return respond(c, http.StatusOK, "Agendamentos listados com sucesso", s.store.listAppointments(""))
}

func (s *Server) listAppointmentsByLawyer(c echo.Context) error {
	lawyerID := c.Param("lawyerId")
	if _, ok := s.store.findUser(lawyerID); !ok {
		return notFound("Advogado não encontrado com id: %s", lawyerID)
	}
	return respond(c, http.StatusOK, "Agendamentos listados com sucesso", s.store.listAppointments(lawyerID))
}

func (s *Server) getAppointment(c echo.Context) error {
	appointment, err := s.store.getAppointment(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Agendamento encontrado", appointment)
}

func (s *Server) createAppointment(c echo.Context) error {
	body, err := bind[models.Appointment](c)
	if err != nil {
		return err
	}
	appointment, err := s.store.createAppointment(body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Agendamento criado com sucesso", appointment)
}

func (s *Server) updateAppointment(c echo.Context) error {
	body, err := bind[models.Appointment](c)
	if err != nil {
		return err
	}
	appointment, err := s.store.updateAppointment(c.Param("id"), body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Agendamento atualizado com sucesso", appointment)
}

func (s *Server) deleteAppointment(c echo.Context) error {
	if err := s.store.deleteAppointment(c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Agendamento excluído com sucesso", nil)
}

// --- Users ---

func (s *Server) listUsers(c echo.Context) error {
	return respond(c, http.StatusOK, "Usuários listados com sucesso", s.store.listUsers())
}

func (s *Server) getUser(c echo.Context) error {
	user, err := s.store.getUser(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Usuário encontrado", user)
}

func (s *Server) createUser(c echo.Context) error {
	body, err := bind[models.User](c)
	if err != nil {
		return err
	}
	user, err := s.store.createUser(body, RoleLawyer)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Usuário criado com sucesso", user)
}

func (s *Server) updateUser(c echo.Context) error {
	body, err := bind[models.User](c)
	if err != nil {
		return err
	}
	user, err := s.store.updateUser(c.Param("id"), body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Usuário atualizado com sucesso", user)
}

func (s *Server) deleteUser(c echo.Context) error {
	if err := s.store.deleteUser(c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Usuário excluído com sucesso", nil)
}

func adminUser(cfg config.MockConfig) models.User {
	name := strings.TrimSpace(cfg.AdminFullName)
	if name == "" {
		name = "Administrador"
	}
	return models.User{
		Username: cfg.AdminUser,
		Password: cfg.AdminPassword,
		FullName: name,
	}
}
