package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
	"github.com/balkashynov/saj/internal/services"
)

type (
	fetchFunc func(ctx context.Context) (any, error)
	saveFunc  func(ctx context.Context) error
)

// adapter binds a resource screen to one resource. Fetch and Submit capture
// what they need on the Update goroutine and return work to run in a command.
type adapter interface {
	Route() guard.Route
	Noun() string
	Fields() []services.Field
	Columns(width int) []table.Column
	Fetch() fetchFunc
	Apply(data any)
	Rows() []table.Row
	Len() int
	ID(i int) string
	Label(i int) string
	// Values returns the form values of row i, or the defaults of a new record when i < 0
	Values(i int) map[string]string
	Submit(id string, values map[string]string) (saveFunc, error)
	Delete(id string) saveFunc
}

// lawyerSelector is implemented by adapters filtered by lawyer
type lawyerSelector interface {
	Lawyer() string
	CycleLawyer(delta int) bool
}

// columns splits width between weighted columns
func columns(width int, titles []string, weights []int) []table.Column {
	total := 0
	for _, w := range weights {
		total += w
	}
	usable := max(len(titles)*6, width-2*len(titles))

	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		cols[i] = table.Column{Title: title, Width: max(6, usable*weights[i]/total)}
	}
	return cols
}

// --- Clients ---

type clientsAdapter struct {
	svc     *services.Services
	clients []models.Client
}

func newClientsAdapter(svc *services.Services) *clientsAdapter {
	return &clientsAdapter{svc: svc}
}

func (a *clientsAdapter) Route() guard.Route       { return guard.RouteClients }
func (a *clientsAdapter) Noun() string             { return "cliente" }
func (a *clientsAdapter) Fields() []services.Field { return services.ClientFields }
func (a *clientsAdapter) Len() int                 { return len(a.clients) }
func (a *clientsAdapter) ID(i int) string          { return a.clients[i].ID }
func (a *clientsAdapter) Label(i int) string       { return a.clients[i].Name }
func (a *clientsAdapter) Apply(data any)           { a.clients = data.([]models.Client) }

func (a *clientsAdapter) Columns(width int) []table.Column {
	return columns(width, []string{"Nome", "CPF/CNPJ", "Email", "Telefone"}, []int{3, 2, 3, 2})
}

func (a *clientsAdapter) Fetch() fetchFunc {
	clients := a.svc.Clients
	return func(ctx context.Context) (any, error) {
		return clients.List(ctx)
	}
}

func (a *clientsAdapter) Rows() []table.Row {
	rows := make([]table.Row, len(a.clients))
	for i, c := range a.clients {
		rows[i] = table.Row{c.Name, c.CpfCnpj, c.Email, c.Phone}
	}
	return rows
}

func (a *clientsAdapter) Values(i int) map[string]string {
	if i < 0 {
		return services.ClientValues(models.Client{})
	}
	return services.ClientValues(a.clients[i])
}

func (a *clientsAdapter) Submit(id string, values map[string]string) (saveFunc, error) {
	var base models.Client
	if id != "" {
		base = a.find(id)
	}
	client, err := services.ApplyClient(base, values)
	if err != nil {
		return nil, err
	}
	svc := a.svc.Clients
	return func(ctx context.Context) error {
		if id == "" {
			_, err := svc.Create(ctx, client)
			return err
		}
		_, err := svc.Update(ctx, id, client)
		return err
	}, nil
}

func (a *clientsAdapter) Delete(id string) saveFunc {
	svc := a.svc.Clients
	return func(ctx context.Context) error { return svc.Delete(ctx, id) }
}

func (a *clientsAdapter) find(id string) models.Client {
	for _, c := range a.clients {
		if c.ID == id {
			return c
		}
	}
	return models.Client{ID: id}
}

// --- Processes ---

type processesData struct {
	processes []models.Process
	clients   []models.Client
}

type processesAdapter struct {
	svc  *services.Services
	data processesData
}

func newProcessesAdapter(svc *services.Services) *processesAdapter {
	return &processesAdapter{svc: svc}
}

func (a *processesAdapter) Route() guard.Route       { return guard.RouteProcesses }
func (a *processesAdapter) Noun() string             { return "processo" }
func (a *processesAdapter) Fields() []services.Field { return services.ProcessFields }
func (a *processesAdapter) Len() int                 { return len(a.data.processes) }
func (a *processesAdapter) ID(i int) string          { return a.data.processes[i].ID }
func (a *processesAdapter) Label(i int) string       { return a.data.processes[i].Number }
func (a *processesAdapter) Apply(data any)           { a.data = data.(processesData) }

func (a *processesAdapter) lookups() services.Lookups {
	return services.Lookups{Clients: a.data.clients, Processes: a.data.processes}
}

func (a *processesAdapter) Columns(width int) []table.Column {
	return columns(width, []string{"Número", "Cliente", "Status", "Descrição"}, []int{3, 3, 2, 4})
}

func (a *processesAdapter) Fetch() fetchFunc {
	svc := a.svc
	return func(ctx context.Context) (any, error) {
		var data processesData
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			data.processes, err = svc.Processes.List(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			data.clients, err = svc.Clients.List(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return data, nil
	}
}

func (a *processesAdapter) Rows() []table.Row {
	rows := make([]table.Row, len(a.data.processes))
	for i, p := range a.data.processes {
		rows[i] = table.Row{p.Number, services.ClientName(a.data.clients, p.ClientID), p.Status, p.Description}
	}
	return rows
}

func (a *processesAdapter) Values(i int) map[string]string {
	if i < 0 {
		return services.ProcessValues(models.Process{Status: models.StatusInProgress}, a.lookups())
	}
	return services.ProcessValues(a.data.processes[i], a.lookups())
}

func (a *processesAdapter) Submit(id string, values map[string]string) (saveFunc, error) {
	var base models.Process
	if id != "" {
		base = a.find(id)
	}
	process, err := services.ApplyProcess(base, values, a.lookups())
	if err != nil {
		return nil, err
	}
	svc := a.svc.Processes
	return func(ctx context.Context) error {
		if id == "" {
			_, err := svc.Create(ctx, process)
			return err
		}
		_, err := svc.Update(ctx, id, process)
		return err
	}, nil
}

func (a *processesAdapter) Delete(id string) saveFunc {
	svc := a.svc.Processes
	return func(ctx context.Context) error { return svc.Delete(ctx, id) }
}

func (a *processesAdapter) find(id string) models.Process {
	for _, p := range a.data.processes {
		if p.ID == id {
			return p
		}
	}
	return models.Process{ID: id}
}

// --- Appointments ---

type appointmentsData struct {
	lawyerID     string
	appointments []models.Appointment
	lookups      services.Lookups
}

// appointmentsAdapter lists the appointments of one lawyer at a time,
// the first lawyer by default
type appointmentsAdapter struct {
	svc      *services.Services
	lawyerID string
	data     appointmentsData
	now      func() time.Time
}

func newAppointmentsAdapter(svc *services.Services) *appointmentsAdapter {
	return &appointmentsAdapter{svc: svc, now: time.Now}
}

func (a *appointmentsAdapter) Route() guard.Route       { return guard.RouteAppointments }
func (a *appointmentsAdapter) Noun() string             { return "compromisso" }
func (a *appointmentsAdapter) Fields() []services.Field { return services.AppointmentFields }
func (a *appointmentsAdapter) Len() int                 { return len(a.data.appointments) }
func (a *appointmentsAdapter) ID(i int) string          { return a.data.appointments[i].ID }

func (a *appointmentsAdapter) Label(i int) string {
	appt := a.data.appointments[i]
	return parser.FormatTimestamp(appt.DateTime) + " com " + services.AppointmentClientName(a.data.lookups.Clients, appt.ClientID)
}

func (a *appointmentsAdapter) Apply(data any) {
	a.data = data.(appointmentsData)
	a.lawyerID = a.data.lawyerID
}

func (a *appointmentsAdapter) Columns(width int) []table.Column {
	return columns(width, []string{"Data/Hora", "Duração", "Cliente", "Processo", "Descrição"}, []int{3, 1, 3, 3, 4})
}

// Fetch loads the lookups, picks the first lawyer when none is selected yet and
// loads that lawyer's appointments
func (a *appointmentsAdapter) Fetch() fetchFunc {
	svc, lawyerID := a.svc, a.lawyerID
	return func(ctx context.Context) (any, error) {
		data := appointmentsData{lawyerID: lawyerID}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			data.lookups.Users, err = svc.Users.List(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			data.lookups.Clients, err = svc.Clients.List(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			data.lookups.Processes, err = svc.Processes.List(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if data.lawyerID == "" && len(data.lookups.Users) > 0 {
			data.lawyerID = data.lookups.Users[0].ID
		}
		if data.lawyerID == "" {
			return data, nil
		}

		appointments, err := svc.Appointments.ListByLawyer(ctx, data.lawyerID)
		if err != nil {
			return nil, err
		}
		services.SortByDateTime(appointments)
		data.appointments = appointments
		return data, nil
	}
}

func (a *appointmentsAdapter) Rows() []table.Row {
	lk := a.data.lookups
	rows := make([]table.Row, len(a.data.appointments))
	for i, appt := range a.data.appointments {
		rows[i] = table.Row{
			parser.FormatTimestamp(appt.DateTime),
			strconv.Itoa(appt.DurationMinutes) + " min",
			services.AppointmentClientName(lk.Clients, appt.ClientID),
			services.ProcessNumber(lk.Processes, appt.ProcessID),
			appt.Description,
		}
	}
	return rows
}

func (a *appointmentsAdapter) Values(i int) map[string]string {
	if i < 0 {
		return services.AppointmentValues(models.Appointment{
			LawyerID:        a.lawyerID,
			DurationMinutes: models.DefaultAppointmentMinutes,
		}, a.data.lookups)
	}
	return services.AppointmentValues(a.data.appointments[i], a.data.lookups)
}

func (a *appointmentsAdapter) Submit(id string, values map[string]string) (saveFunc, error) {
	var base models.Appointment
	if id != "" {
		base = a.find(id)
	}
	appt, err := services.ApplyAppointment(base, values, a.data.lookups, a.now())
	if err != nil {
		return nil, err
	}
	svc := a.svc.Appointments
	return func(ctx context.Context) error {
		if id == "" {
			_, err := svc.Create(ctx, appt)
			return err
		}
		_, err := svc.Update(ctx, id, appt)
		return err
	}, nil
}

func (a *appointmentsAdapter) Delete(id string) saveFunc {
	svc := a.svc.Appointments
	return func(ctx context.Context) error { return svc.Delete(ctx, id) }
}

func (a *appointmentsAdapter) find(id string) models.Appointment {
	for _, appt := range a.data.appointments {
		if appt.ID == id {
			return appt
		}
	}
	return models.Appointment{ID: id}
}

// Lawyer returns the name of the selected lawyer
func (a *appointmentsAdapter) Lawyer() string {
	if a.lawyerID == "" {
		return "-"
	}
	return services.LawyerName(a.data.lookups.Users, a.lawyerID)
}

// CycleLawyer selects the next or previous lawyer. It reports whether the selection changed.
func (a *appointmentsAdapter) CycleLawyer(delta int) bool {
	users := a.data.lookups.Users
	if len(users) < 2 {
		return false
	}
	current := 0
	for i, u := range users {
		if u.ID == a.lawyerID {
			current = i
			break
		}
	}
	next := (current + delta + len(users)) % len(users)
	a.lawyerID = users[next].ID
	return true
}
