package services

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
)

// Field is one input of a record form. The first field of a form is its primary
// field: free text typed on the command line goes there.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	Aliases     []string
	Required    bool
	Secret      bool
}

// Form field sets, in display order
var (
	ClientFields = []Field{
		{Key: "name", Label: "Nome", Placeholder: "Jane Doe", Aliases: []string{"nome"}, Required: true},
		{Key: "cpf", Label: "CPF/CNPJ", Placeholder: "123.456.789-00", Aliases: []string{"cnpj", "doc", "cpfcnpj"}, Required: true},
		{Key: "email", Label: "Email", Placeholder: "jane@example.com"},
		{Key: "phone", Label: "Telefone", Placeholder: "(11) 99999-0000", Aliases: []string{"tel", "telefone"}},
	}

	ProcessFields = []Field{
		{Key: "number", Label: "Número", Placeholder: "0001234-56.2026.8.26.0100", Aliases: []string{"numero", "num"}, Required: true},
		{Key: "client", Label: "Cliente", Placeholder: "nome, CPF/CNPJ ou id", Aliases: []string{"cliente"}, Required: true},
		{Key: "status", Label: "Status", Placeholder: strings.Join(models.ProcessStatuses, ", ")},
		{Key: "description", Label: "Descrição", Aliases: []string{"desc", "descricao"}},
	}

	AppointmentFields = []Field{
		{Key: "description", Label: "Descrição", Aliases: []string{"desc", "descricao"}},
		{Key: "when", Label: "Data/Hora", Placeholder: "25/10/2026 14:00, amanhã 10:00, 3 dias", Aliases: []string{"data", "date", "quando"}, Required: true},
		{Key: "duration", Label: "Duração (min)", Placeholder: strconv.Itoa(models.DefaultAppointmentMinutes), Aliases: []string{"duracao", "min"}},
		{Key: "lawyer", Label: "Advogado", Placeholder: "usuário, nome ou id", Aliases: []string{"advogado", "adv"}, Required: true},
		{Key: "client", Label: "Cliente", Placeholder: "nome, CPF/CNPJ ou id", Aliases: []string{"cliente"}, Required: true},
		{Key: "process", Label: "Processo", Placeholder: "número ou id (opcional, - remove)", Aliases: []string{"processo"}},
	}

	UserFields = []Field{
		{Key: "name", Label: "Nome completo", Placeholder: "Mariana Souza", Aliases: []string{"nome", "fullname"}, Required: true},
		{Key: "username", Label: "Usuário", Placeholder: "mariana", Aliases: []string{"user", "usuario", "login"}, Required: true},
		{Key: "password", Label: "Senha", Aliases: []string{"senha", "pass"}, Secret: true},
	}
)

// Lookups are the lists a form resolves references against
type Lookups struct {
	Clients   []models.Client
	Processes []models.Process
	Users     []models.User
}

// CanonicalValues maps aliased keys onto the field keys. Free text goes to the
// primary field unless it was also given by key. Unknown keys are reported.
func CanonicalValues(fields []Field, text string, values map[string]string) (map[string]string, error) {
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Key] = f.Key
		for _, a := range f.Aliases {
			byName[a] = f.Key
		}
	}

	out := map[string]string{}
	var problems []string
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		v := values[k]
		key, ok := byName[parser.Fold(k)]
		if !ok {
			problems = append(problems, fmt.Sprintf("Campo desconhecido '%s'", k))
			continue
		}
		if _, dup := out[key]; dup {
			problems = append(problems, fmt.Sprintf("Campo '%s' informado mais de uma vez", key))
			continue
		}
		out[key] = v
	}

	if text = strings.TrimSpace(text); text != "" && len(fields) > 0 {
		primary := fields[0].Key
		if _, given := out[primary]; given {
			problems = append(problems, fmt.Sprintf("Campo '%s' informado mais de uma vez", primary))
		} else {
			out[primary] = text
		}
	}

	if len(problems) > 0 {
		return nil, &models.ValidationError{Messages: problems}
	}
	return out, nil
}

// ClientValues is the form view of a client
func ClientValues(c models.Client) map[string]string {
	return map[string]string{"name": c.Name, "cpf": c.CpfCnpj, "email": c.Email, "phone": c.Phone}
}

// ApplyClient sets the given form values on c. Keys absent from values are left alone.
func ApplyClient(c models.Client, values map[string]string) (models.Client, error) {
	var problems []string
	for _, key := range ordered(ClientFields, values) {
		value := strings.TrimSpace(values[key])
		switch key {
		case "name":
			c.Name = value
		case "cpf":
			if value == "" {
				c.CpfCnpj = ""
				continue
			}
			doc, err := parser.NormalizeDocument(value)
			if err != nil {
				problems = append(problems, "CPF/CNPJ deve ter 11 ou 14 dígitos")
				continue
			}
			c.CpfCnpj = doc
		case "email":
			c.Email = value
		case "phone":
			c.Phone = value
		}
	}
	return c, collect(c, problems)
}

// ProcessValues is the form view of a process
func ProcessValues(p models.Process, lk Lookups) map[string]string {
	client := ""
	if p.ClientID != "" {
		client = ClientName(lk.Clients, p.ClientID)
	}
	return map[string]string{"number": p.Number, "client": client, "status": p.Status, "description": p.Description}
}

// ApplyProcess sets the given form values on p. A new process without a status
// starts "Em Andamento".
func ApplyProcess(p models.Process, values map[string]string, lk Lookups) (models.Process, error) {
	var problems []string
	for _, key := range ordered(ProcessFields, values) {
		value := strings.TrimSpace(values[key])
		switch key {
		case "number":
			p.Number = value
		case "client":
			id, msg := resolveField("Cliente", value, func(ref string) (string, error) {
				return ResolveClientID(lk.Clients, ref)
			})
			if msg != "" {
				problems = append(problems, msg)
				continue
			}
			p.ClientID = id
		case "status":
			if value == "" {
				p.Status = ""
				continue
			}
			status, ok := parser.NormalizeStatus(value, models.ProcessStatuses)
			if !ok {
				problems = append(problems, fmt.Sprintf("Status inválido '%s' (use %s)", value, strings.Join(models.ProcessStatuses, ", ")))
				continue
			}
			p.Status = status
		case "description":
			p.Description = value
		}
	}
	if p.ID == "" && p.Status == "" {
		p.Status = models.StatusInProgress
	}
	return p, collect(p, problems)
}

// AppointmentValues is the form view of an appointment
func AppointmentValues(a models.Appointment, lk Lookups) map[string]string {
	values := map[string]string{
		"description": a.Description,
		"when":        "",
		"duration":    "",
		"lawyer":      "",
		"client":      "",
		"process":     "",
	}
	if a.DateTime != "" {
		values["when"] = parser.FormatTimestamp(a.DateTime)
	}
	if a.DurationMinutes > 0 {
		values["duration"] = strconv.Itoa(a.DurationMinutes)
	}
	if a.LawyerID != "" {
		values["lawyer"] = LawyerName(lk.Users, a.LawyerID)
	}
	if a.ClientID != "" {
		values["client"] = ClientName(lk.Clients, a.ClientID)
	}
	if a.ProcessID != "" {
		values["process"] = ProcessNumber(lk.Processes, a.ProcessID)
	}
	return values
}

// ApplyAppointment sets the given form values on a. Relative dates are taken
// from now; the date is stored as ISO 8601 UTC.
func ApplyAppointment(a models.Appointment, values map[string]string, lk Lookups, now time.Time) (models.Appointment, error) {
	var problems []string
	for _, key := range ordered(AppointmentFields, values) {
		value := strings.TrimSpace(values[key])
		switch key {
		case "description":
			a.Description = value
		case "when":
			if value == "" {
				a.DateTime = ""
				continue
			}
			at, err := parser.ParseDateTimeAt(value, now)
			if err != nil {
				problems = append(problems, fmt.Sprintf("Data/Hora inválida '%s'", value))
				continue
			}
			a.DateTime = parser.ToISO(at)
		case "duration":
			if value == "" {
				a.DurationMinutes = 0
				continue
			}
			minutes, err := strconv.Atoi(strings.TrimSuffix(value, "min"))
			if err != nil {
				problems = append(problems, fmt.Sprintf("Duração inválida '%s'", value))
				continue
			}
			a.DurationMinutes = minutes
		case "lawyer":
			id, msg := resolveField("Advogado", value, func(ref string) (string, error) {
				return ResolveUserID(lk.Users, ref)
			})
			if msg != "" {
				problems = append(problems, msg)
				continue
			}
			a.LawyerID = id
		case "client":
			id, msg := resolveField("Cliente", value, func(ref string) (string, error) {
				return ResolveClientID(lk.Clients, ref)
			})
			if msg != "" {
				problems = append(problems, msg)
				continue
			}
			a.ClientID = id
		case "process":
			if value == "" || value == "-" {
				a.ProcessID = ""
				continue
			}
			id, msg := resolveField("Processo", value, func(ref string) (string, error) {
				return ResolveProcessID(lk.Processes, ref)
			})
			if msg != "" {
				problems = append(problems, msg)
				continue
			}
			a.ProcessID = id
		}
	}
	if a.ID == "" && a.DurationMinutes == 0 {
		a.DurationMinutes = models.DefaultAppointmentMinutes
	}
	return a, collect(a, problems)
}

// UserValues is the form view of a user. The password is never shown.
func UserValues(u models.User) map[string]string {
	return map[string]string{"name": u.FullName, "username": u.Username, "password": ""}
}

// ApplyUser sets the given form values on u. An empty password keeps the current one.
func ApplyUser(u models.User, values map[string]string) (models.User, error) {
	for _, key := range ordered(UserFields, values) {
		value := values[key]
		switch key {
		case "name":
			u.FullName = strings.TrimSpace(value)
		case "username":
			u.Username = strings.TrimSpace(value)
		case "password":
			u.Password = value
		}
	}
	return u, collect(u, nil)
}

// resolveField resolves a reference and turns lookup failures into a form message
func resolveField(label, ref string, fn func(string) (string, error)) (string, string) {
	if ref == "" {
		return "", ""
	}
	id, err := fn(ref)
	switch {
	case err == nil:
		return id, ""
	case errors.Is(err, ErrNoMatch):
		return "", fmt.Sprintf("%s '%s' não encontrado", label, ref)
	default:
		return "", fmt.Sprintf("%s '%s' é ambíguo, seja mais específico", label, ref)
	}
}

// ordered returns the keys of values in form order, so messages come out stable
func ordered(fields []Field, values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for _, f := range fields {
		if _, ok := values[f.Key]; ok {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// collect merges parsing problems with the record's presence checks
func collect(record any, problems []string) error {
	if err := models.Validate(record); err != nil {
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		problems = append(problems, ve.Messages...)
	}
	if len(problems) == 0 {
		return nil
	}
	return &models.ValidationError{Messages: problems}
}
