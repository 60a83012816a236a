package models

// Client is a customer of the legal office
type Client struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name" validate:"required"`
	CpfCnpj string `json:"cpfCnpj" validate:"required"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Process is a legal process that belongs to a client
type Process struct {
	ID          string `json:"id,omitempty"`
	Number      string `json:"number" validate:"required"`
	ClientID    string `json:"clientId" validate:"required"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status" validate:"required"`
}

// Process statuses offered by the forms
const (
	StatusInProgress = "Em Andamento"
	StatusConcluded  = "Concluído"
	StatusArchived   = "Arquivado"
	StatusSuspended  = "Suspenso"
)

// ProcessStatuses lists the statuses in display order
var ProcessStatuses = []string{StatusInProgress, StatusConcluded, StatusArchived, StatusSuspended}

// Appointment is a meeting between a lawyer and a client, optionally tied to a process.
// DateTime is an ISO 8601 timestamp.
type Appointment struct {
	ID              string `json:"id,omitempty"`
	DateTime        string `json:"dateTime" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"min=15"`
	LawyerID        string `json:"lawyerId" validate:"required"`
	ClientID        string `json:"clientId" validate:"required"`
	ProcessID       string `json:"processId,omitempty"`
	Description     string `json:"description,omitempty"`
}

// DefaultAppointmentMinutes is the duration pre-filled in new appointment forms
const DefaultAppointmentMinutes = 60

// User is an office user; lawyers are users
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password,omitempty"` // write-only
	FullName string `json:"fullName" validate:"required"`
}

// DashboardStats summarizes the office workload
type DashboardStats struct {
	TotalClients      int `json:"totalClients"`
	ActiveProcesses   int `json:"activeProcesses"`
	TodayAppointments int `json:"todayAppointments"`
	WeekAppointments  int `json:"weekAppointments"`
}

// RecordID and WithID let the generic resource services handle identifiers.
// Bodies are sent without an id: the id travels in the URL.

func (c Client) RecordID() string { return c.ID }

func (c Client) WithID(id string) Client {
	c.ID = id
	return c
}

func (p Process) RecordID() string { return p.ID }

func (p Process) WithID(id string) Process {
	p.ID = id
	return p
}

func (a Appointment) RecordID() string { return a.ID }

func (a Appointment) WithID(id string) Appointment {
	a.ID = id
	return a
}

func (u User) RecordID() string { return u.ID }

func (u User) WithID(id string) User {
	u.ID = id
	return u
}
