package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/models"
)

const msgPasswordRequired = "Senha é obrigatória"

// Clients is the /clients resource
type Clients struct {
	*Resource[models.Client]
}

// Processes is the /processes resource
type Processes struct {
	*Resource[models.Process]
}

// Appointments is the /appointments resource
type Appointments struct {
	*Resource[models.Appointment]
}

// ListByLawyer fetches the appointments of one lawyer
func (a *Appointments) ListByLawyer(ctx context.Context, lawyerID string) ([]models.Appointment, error) {
	lawyerID = strings.TrimSpace(lawyerID)
	if lawyerID == "" {
		return nil, ErrMissingID
	}
	return a.list(ctx, a.base+"/lawyer/"+url.PathEscape(lawyerID))
}

// Users is the /users resource; lawyers are users
type Users struct {
	*Resource[models.User]
}

// Create requires a password, which Update leaves optional
func (u *Users) Create(ctx context.Context, user models.User) (models.User, error) {
	if strings.TrimSpace(user.Password) == "" {
		return models.User{}, &models.ValidationError{Messages: []string{msgPasswordRequired}}
	}
	return u.Resource.Create(ctx, user)
}

// Services bundles the four resource facades over one client
type Services struct {
	Clients      *Clients
	Processes    *Processes
	Appointments *Appointments
	Users        *Users
}

// New creates the resource services
func New(client *api.Client) *Services {
	return &Services{
		Clients:      &Clients{NewResource[models.Client](client, "/clients")},
		Processes:    &Processes{NewResource[models.Process](client, "/processes")},
		Appointments: &Appointments{NewResource[models.Appointment](client, "/appointments")},
		Users:        &Users{NewResource[models.User](client, "/users")},
	}
}
