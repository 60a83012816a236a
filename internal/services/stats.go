package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
)

// Dashboard is everything the dashboard screen shows
type Dashboard struct {
	Stats        models.DashboardStats
	Upcoming     []models.Appointment
	Clients      []models.Client
	Processes    []models.Process
	Users        []models.User
	Appointments []models.Appointment
}

// UpcomingLimit is the number of appointments listed on the dashboard
const UpcomingLimit = 5

// LoadDashboard fetches clients, processes and users concurrently, then the
// appointments of every lawyer, and computes the stats as of now
func (s *Services) LoadDashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	d := &Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Clients, err = s.Clients.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Processes, err = s.Processes.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Users, err = s.Users.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	appointments, err := s.AppointmentsOf(ctx, d.Users)
	if err != nil {
		return nil, err
	}
	d.Appointments = appointments
	d.Stats = Stats(d.Clients, d.Processes, appointments, now)
	d.Upcoming = Upcoming(appointments, now, UpcomingLimit)
	return d, nil
}

// AppointmentsOf fetches the appointments of every given lawyer
func (s *Services) AppointmentsOf(ctx context.Context, lawyers []models.User) ([]models.Appointment, error) {
	var (
		mu  sync.Mutex
		all []models.Appointment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, lawyer := range lawyers {
		g.Go(func() error {
			list, err := s.Appointments.ListByLawyer(gctx, lawyer.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, list...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortByDateTime(all)
	return all, nil
}

// Stats computes the dashboard counters. Appointments with unparseable dates are skipped.
func Stats(clients []models.Client, processes []models.Process, appointments []models.Appointment, now time.Time) models.DashboardStats {
	stats := models.DashboardStats{TotalClients: len(clients)}

	for _, p := range processes {
		if p.Status == models.StatusInProgress {
			stats.ActiveProcesses++
		}
	}

	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekEnd := today.AddDate(0, 0, 7)
	for _, a := range appointments {
		at, err := parser.ParseTimestamp(a.DateTime)
		if err != nil {
			continue
		}
		at = at.In(now.Location())
		if !at.Before(today) && at.Before(tomorrow) {
			stats.TodayAppointments++
		}
		if !at.Before(today) && at.Before(weekEnd) {
			stats.WeekAppointments++
		}
	}
	return stats
}

// Upcoming returns up to limit appointments starting at or after now, soonest first
func Upcoming(appointments []models.Appointment, now time.Time, limit int) []models.Appointment {
	var upcoming []models.Appointment
	for _, a := range appointments {
		at, err := parser.ParseTimestamp(a.DateTime)
		if err != nil || at.Before(now) {
			continue
		}
		upcoming = append(upcoming, a)
	}
	SortByDateTime(upcoming)
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// SortByDateTime orders appointments chronologically; unparseable dates go last
func SortByDateTime(appointments []models.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		ti, erri := parser.ParseTimestamp(appointments[i].DateTime)
		tj, errj := parser.ParseTimestamp(appointments[j].DateTime)
		switch {
		case erri != nil:
			return false
		case errj != nil:
			return true
		default:
			return ti.Before(tj)
		}
	})
}

// GroupByDay buckets appointments by local calendar day, in chronological order
func GroupByDay(appointments []models.Appointment, loc *time.Location) ([]time.Time, map[time.Time][]models.Appointment) {
	sorted := append([]models.Appointment(nil), appointments...)
	SortByDateTime(sorted)

	var days []time.Time
	groups := map[time.Time][]models.Appointment{}
	for _, a := range sorted {
		at, err := parser.ParseTimestamp(a.DateTime)
		if err != nil {
			continue
		}
		day := startOfDay(at.In(loc))
		if _, ok := groups[day]; !ok {
			days = append(days, day)
		}
		groups[day] = append(groups[day], a)
	}
	return days, groups
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
