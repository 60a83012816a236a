package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
	"github.com/balkashynov/saj/internal/services"
)

const msgLoadFailed = "Erro ao carregar dados"

var title = cases.Title(language.BrazilianPortuguese)

// lookupNeeds says which lists a resource resolves references against
type lookupNeeds struct {
	clients   bool
	processes bool
	users     bool
}

// resourceCmd describes one CRUD command group over a resource
type resourceCmd[T services.Record[T]] struct {
	use     string
	aliases []string
	short   string
	noun    string
	fields  []services.Field
	needs   lookupNeeds

	resource func(*services.Services) *services.Resource[T]
	headers  []string
	row      func(T, services.Lookups) []string
	label    func(T) string
	values   func(T, services.Lookups) map[string]string
	apply    func(T, map[string]string, services.Lookups, time.Time) (T, error)

	// optional
	find      func([]T, string) (string, error)
	create    func(context.Context, *services.Services, T) (T, error)
	list      func(*cobra.Command, *app, services.Lookups) ([]T, error)
	listFlags func(*cobra.Command)
}

func newResourceCmd[T services.Record[T]](c *cli, r resourceCmd[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     r.use,
		Aliases: r.aliases,
		Short:   r.short,
		Long: fmt.Sprintf(`%s

Fields: %s

Records are created and changed with key:value arguments; free text goes to
the first field. Shell quotes keep spaces inside a value:

  saj %s add %s`, r.short, fieldList(r.fields), r.use, example(r.fields)),
	}

	cmd.AddCommand(r.lsCmd(c), r.showCmd(c), r.addCmd(c), r.editCmd(c), r.rmCmd(c))
	return cmd
}

func (r resourceCmd[T]) lsCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List " + r.use,
		Args:    cobra.NoArgs,
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			lk, err := loadLookups(cmd.Context(), a.svc, r.needs)
			if err != nil {
				return failure(err, msgLoadFailed)
			}

			var records []T
			if r.list != nil {
				records, err = r.list(cmd, a, lk)
			} else {
				records, err = r.resource(a.svc).List(cmd.Context())
			}
			if err != nil {
				return failure(err, msgLoadFailed)
			}

			if asJSON {
				if records == nil {
					records = []T{}
				}
				return printJSON(cmd.OutOrStdout(), records)
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Nenhum %s encontrado.\n", r.noun)
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, append([]string{rec.RecordID()}, r.row(rec, lk)...))
			}
			printTable(cmd.OutOrStdout(), append([]string{"ID"}, r.headers...), rows)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	if r.listFlags != nil {
		r.listFlags(cmd)
	}
	return cmd
}

func (r resourceCmd[T]) showCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: fmt.Sprintf("Show one %s", r.noun),
		Args:  cobra.ExactArgs(1),
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			lk, rec, err := r.fetch(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), rec)
			}

			out := cmd.OutOrStdout()
			values := r.values(rec, lk)
			fmt.Fprintf(out, "%-16s %s\n", "ID:", rec.RecordID())
			for _, f := range r.fields {
				if f.Secret {
					continue
				}
				fmt.Fprintf(out, "%-16s %s\n", f.Label+":", values[f.Key])
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func (r resourceCmd[T]) addCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add <campos...>",
		Short: fmt.Sprintf("Create a %s", r.noun),
		Args:  cobra.MinimumNArgs(1),
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			values, err := r.parse(args)
			if err != nil {
				return failure(err, "")
			}
			for _, f := range r.fields {
				if f.Secret && values[f.Key] == "" {
					if values[f.Key], err = prompt(cmd, f.Label, true); err != nil {
						return err
					}
				}
			}

			lk, err := loadLookups(cmd.Context(), a.svc, r.needs)
			if err != nil {
				return failure(err, msgLoadFailed)
			}
			var zero T
			rec, err := r.apply(zero, values, lk, c.now())
			if err != nil {
				return failure(err, "")
			}

			if r.create != nil {
				rec, err = r.create(cmd.Context(), a.svc, rec)
			} else {
				rec, err = r.resource(a.svc).Create(cmd.Context(), rec)
			}
			if err != nil {
				return failure(err, "Erro ao salvar "+r.noun)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s salvo: %s (%s)\n", title.String(r.noun), r.label(rec), rec.RecordID())
			return nil
		}),
	}
}

func (r resourceCmd[T]) editCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <campos...>",
		Short: fmt.Sprintf("Change a %s", r.noun),
		Args:  cobra.MinimumNArgs(2),
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			// free text on edit is ambiguous, only key:value is accepted
			if parsed := parser.ParseFields(args[1:]); parsed.Text != "" {
				return &exitError{msg: fmt.Sprintf("Use campo:valor para alterar (texto solto: '%s')", parsed.Text)}
			}
			values, err := r.parse(args[1:])
			if err != nil {
				return failure(err, "")
			}

			lk, rec, err := r.fetch(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			rec, err = r.apply(rec, values, lk, c.now())
			if err != nil {
				return failure(err, "")
			}
			rec, err = r.resource(a.svc).Update(cmd.Context(), rec.RecordID(), rec)
			if err != nil {
				return failure(err, "Erro ao salvar "+r.noun)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s salvo: %s\n", title.String(r.noun), r.label(rec))
			return nil
		}),
	}
}

func (r resourceCmd[T]) rmCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   fmt.Sprintf("Delete a %s", r.noun),
		Args:    cobra.ExactArgs(1),
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			_, rec, err := r.fetch(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Excluir %s %s?", r.noun, r.label(rec))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelado.")
				return nil
			}
			if err := r.resource(a.svc).Delete(cmd.Context(), rec.RecordID()); err != nil {
				return failure(err, "Erro ao excluir "+r.noun)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s excluído: %s\n", title.String(r.noun), r.label(rec))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// parse runs the quick-entry syntax and maps it onto the form fields
func (r resourceCmd[T]) parse(args []string) (map[string]string, error) {
	parsed := parser.ParseFields(args)
	if len(parsed.Errors) > 0 {
		return nil, &models.ValidationError{Messages: parsed.Errors}
	}
	return services.CanonicalValues(r.fields, parsed.Text, parsed.Fields)
}

// fetch loads the lookups and the record ref points at. ref is an id, or a
// name or number when the resource can resolve one.
func (r resourceCmd[T]) fetch(ctx context.Context, a *app, ref string) (services.Lookups, T, error) {
	var zero T
	lk, err := loadLookups(ctx, a.svc, r.needs)
	if err != nil {
		return lk, zero, failure(err, msgLoadFailed)
	}

	res := r.resource(a.svc)
	id := strings.TrimSpace(ref)
	if r.find != nil {
		all, err := res.List(ctx)
		if err != nil {
			return lk, zero, failure(err, msgLoadFailed)
		}
		if id, err = r.find(all, ref); err != nil {
			return lk, zero, refError(r.noun, ref, err)
		}
	}

	rec, err := res.Get(ctx, id)
	if err != nil {
		return lk, zero, failure(err, msgLoadFailed)
	}
	return lk, rec, nil
}

// refError words a failed reference lookup
func refError(noun, ref string, err error) error {
	if errors.Is(err, services.ErrAmbiguous) {
		return &exitError{msg: fmt.Sprintf("%s '%s' é ambíguo, seja mais específico", title.String(noun), ref), err: err}
	}
	return &exitError{msg: fmt.Sprintf("%s '%s' não encontrado", title.String(noun), ref), err: err}
}

// loadLookups fetches the needed lists concurrently
func loadLookups(ctx context.Context, svc *services.Services, need lookupNeeds) (services.Lookups, error) {
	var lk services.Lookups
	g, gctx := errgroup.WithContext(ctx)
	if need.clients {
		g.Go(func() (err error) {
			lk.Clients, err = svc.Clients.List(gctx)
			return err
		})
	}
	if need.processes {
		g.Go(func() (err error) {
			lk.Processes, err = svc.Processes.List(gctx)
			return err
		})
	}
	if need.users {
		g.Go(func() (err error) {
			lk.Users, err = svc.Users.List(gctx)
			return err
		})
	}
	err := g.Wait()
	return lk, err
}

func fieldList(fields []services.Field) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		name := f.Key
		if len(f.Aliases) > 0 {
			name += " (" + strings.Join(f.Aliases, ", ") + ")"
		}
		if f.Required {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func example(fields []services.Field) string {
	var parts []string
	for i, f := range fields {
		if f.Placeholder == "" || f.Secret {
			continue
		}
		if i == 0 {
			parts = append(parts, f.Placeholder)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%q", f.Key, f.Placeholder))
	}
	return strings.Join(parts, " ")
}

func newClientsCmd(c *cli) *cobra.Command {
	return newResourceCmd(c, resourceCmd[models.Client]{
		use:      "clients",
		aliases:  []string{"clientes"},
		short:    "Manage clients",
		noun:     "cliente",
		fields:   services.ClientFields,
		resource: func(s *services.Services) *services.Resource[models.Client] { return s.Clients.Resource },
		headers:  []string{"Nome", "Documento", "Email", "Telefone"},
		row: func(cl models.Client, _ services.Lookups) []string {
			doc := strings.TrimSpace(parser.DocumentKind(cl.CpfCnpj) + " " + cl.CpfCnpj)
			return []string{truncate(cl.Name, 32), doc, cl.Email, cl.Phone}
		},
		label:  func(cl models.Client) string { return cl.Name },
		values: func(cl models.Client, _ services.Lookups) map[string]string { return services.ClientValues(cl) },
		apply: func(cl models.Client, values map[string]string, _ services.Lookups, _ time.Time) (models.Client, error) {
			return services.ApplyClient(cl, values)
		},
		find: services.ResolveClientID,
	})
}

func newProcessesCmd(c *cli) *cobra.Command {
	return newResourceCmd(c, resourceCmd[models.Process]{
		use:      "processes",
		aliases:  []string{"processos"},
		short:    "Manage legal processes",
		noun:     "processo",
		fields:   services.ProcessFields,
		needs:    lookupNeeds{clients: true},
		resource: func(s *services.Services) *services.Resource[models.Process] { return s.Processes.Resource },
		headers:  []string{"Número", "Cliente", "Status", "Descrição"},
		row: func(p models.Process, lk services.Lookups) []string {
			return []string{p.Number, truncate(services.ClientName(lk.Clients, p.ClientID), 28), p.Status, truncate(p.Description, 40)}
		},
		label:  func(p models.Process) string { return p.Number },
		values: services.ProcessValues,
		apply: func(p models.Process, values map[string]string, lk services.Lookups, _ time.Time) (models.Process, error) {
			return services.ApplyProcess(p, values, lk)
		},
		find: services.ResolveProcessID,
	})
}

func newAppointmentsCmd(c *cli) *cobra.Command {
	var lawyer string
	return newResourceCmd(c, resourceCmd[models.Appointment]{
		use:      "appointments",
		aliases:  []string{"compromissos"},
		short:    "Manage appointments",
		noun:     "compromisso",
		fields:   services.AppointmentFields,
		needs:    lookupNeeds{clients: true, processes: true, users: true},
		resource: func(s *services.Services) *services.Resource[models.Appointment] { return s.Appointments.Resource },
		headers:  []string{"Data/Hora", "Duração", "Advogado", "Cliente", "Processo", "Descrição"},
		row: func(ap models.Appointment, lk services.Lookups) []string {
			return []string{
				parser.FormatTimestamp(ap.DateTime),
				fmt.Sprintf("%d min", ap.DurationMinutes),
				truncate(services.LawyerName(lk.Users, ap.LawyerID), 24),
				truncate(services.AppointmentClientName(lk.Clients, ap.ClientID), 24),
				services.ProcessNumber(lk.Processes, ap.ProcessID),
				truncate(ap.Description, 32),
			}
		},
		label:  func(ap models.Appointment) string { return parser.FormatTimestamp(ap.DateTime) },
		values: services.AppointmentValues,
		apply:  services.ApplyAppointment,
		list: func(cmd *cobra.Command, a *app, lk services.Lookups) ([]models.Appointment, error) {
			return appointmentsOf(cmd.Context(), a, lk, lawyer)
		},
		listFlags: func(cmd *cobra.Command) {
			cmd.Flags().StringVarP(&lawyer, "lawyer", "l", "", "Only this lawyer (username, name or id)")
		},
	})
}

func newUsersCmd(c *cli) *cobra.Command {
	return newResourceCmd(c, resourceCmd[models.User]{
		use:      "users",
		aliases:  []string{"usuarios", "lawyers"},
		short:    "Manage users (lawyers)",
		noun:     "usuário",
		fields:   services.UserFields,
		resource: func(s *services.Services) *services.Resource[models.User] { return s.Users.Resource },
		headers:  []string{"Usuário", "Nome completo"},
		row: func(u models.User, _ services.Lookups) []string {
			return []string{u.Username, u.FullName}
		},
		label:  func(u models.User) string { return u.Username },
		values: func(u models.User, _ services.Lookups) map[string]string { return services.UserValues(u) },
		apply: func(u models.User, values map[string]string, _ services.Lookups, _ time.Time) (models.User, error) {
			return services.ApplyUser(u, values)
		},
		find: services.ResolveUserID,
		create: func(ctx context.Context, s *services.Services, u models.User) (models.User, error) {
			return s.Users.Create(ctx, u)
		},
	})
}

// appointmentsOf lists the appointments of one lawyer, or of every lawyer when
// ref is empty
func appointmentsOf(ctx context.Context, a *app, lk services.Lookups, ref string) ([]models.Appointment, error) {
	if strings.TrimSpace(ref) == "" {
		return a.svc.AppointmentsOf(ctx, lk.Users)
	}
	id, err := services.ResolveUserID(lk.Users, ref)
	if err != nil {
		return nil, refError("advogado", ref, err)
	}
	list, err := a.svc.Appointments.ListByLawyer(ctx, id)
	if err != nil {
		return nil, err
	}
	services.SortByDateTime(list)
	return list, nil
}
