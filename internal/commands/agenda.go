package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
	"github.com/balkashynov/saj/internal/services"
)

var dayStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))

type agendaDay struct {
	Date         string               `json:"date"`
	Label        string               `json:"label"`
	Appointments []models.Appointment `json:"appointments"`
}

func newAgendaCmd(c *cli) *cobra.Command {
	var (
		lawyer string
		week   bool
		days   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show upcoming appointments grouped by day",
		Long: `Show appointments grouped by day.

By default the next 7 days starting today are shown for every lawyer.
--week shows the current calendar week (Monday to Sunday) instead.`,
		Args: cobra.NoArgs,
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			if days < 1 {
				return &exitError{msg: "--days deve ser pelo menos 1"}
			}

			now := c.now()
			start, end := agendaRange(now, week, days)

			lk, err := loadLookups(cmd.Context(), a.svc, lookupNeeds{clients: true, processes: true, users: true})
			if err != nil {
				return failure(err, msgLoadFailed)
			}
			list, err := appointmentsOf(cmd.Context(), a, lk, lawyer)
			if err != nil {
				return failure(err, msgLoadFailed)
			}

			var inRange []models.Appointment
			for _, ap := range list {
				at, err := parser.ParseTimestamp(ap.DateTime)
				if err != nil || at.Before(start) || !at.Before(end) {
					continue
				}
				inRange = append(inRange, ap)
			}
			order, groups := services.GroupByDay(inRange, now.Location())

			out := cmd.OutOrStdout()
			if asJSON {
				result := make([]agendaDay, 0, len(order))
				for _, day := range order {
					result = append(result, agendaDay{Date: day.Format("2006-01-02"), Label: parser.FormatDay(day, now), Appointments: groups[day]})
				}
				return printJSON(out, result)
			}

			fmt.Fprintf(out, "Agenda de %s a %s\n", start.Format("02/01"), end.AddDate(0, 0, -1).Format("02/01/2006"))
			if len(order) == 0 {
				fmt.Fprintln(out, "\nNenhum compromisso no período.")
				return nil
			}
			for _, day := range order {
				fmt.Fprintln(out)
				fmt.Fprintln(out, dayStyle.Render(parser.FormatDay(day, now)))
				for _, ap := range groups[day] {
					at, _ := parser.ParseTimestamp(ap.DateTime)
					line := fmt.Sprintf("  %s  %3d min  %-20s  %-24s",
						at.In(now.Location()).Format("15:04"),
						ap.DurationMinutes,
						truncate(services.LawyerName(lk.Users, ap.LawyerID), 20),
						truncate(services.AppointmentClientName(lk.Clients, ap.ClientID), 24))
					if ap.ProcessID != "" {
						line += "  " + services.ProcessNumber(lk.Processes, ap.ProcessID)
					}
					if ap.Description != "" {
						line += "  " + truncate(ap.Description, 40)
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&lawyer, "lawyer", "l", "", "Only this lawyer (username, name or id)")
	cmd.Flags().BoolVarP(&week, "week", "w", false, "Show the current calendar week")
	cmd.Flags().IntVarP(&days, "days", "d", 7, "Number of days to show from today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// agendaRange returns the half-open interval the agenda covers
func agendaRange(now time.Time, week bool, days int) (time.Time, time.Time) {
	if week {
		start := getWeekStart(now)
		return start, start.AddDate(0, 0, 7)
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, days)
}

// getWeekStart returns the start of the calendar week (Monday) for the given time
func getWeekStart(t time.Time) time.Time {
	weekday := t.Weekday()
	daysFromMonday := int(weekday - time.Monday)
	if weekday == time.Sunday {
		daysFromMonday = 6 // Sunday is 6 days from Monday
	}

	weekStart := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
}
