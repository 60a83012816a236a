package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
)

// Placeholders shown when an id cannot be resolved against a fetched list
const (
	UnknownClient            = "Cliente não encontrado"
	UnknownAppointmentClient = "-"
	UnknownLawyer            = "-"
	UnknownProcess           = "-"
)

var (
	ErrNoMatch   = errors.New("no matching record")
	ErrAmbiguous = errors.New("more than one record matches")
)

// ClientName resolves a client id to its name
func ClientName(clients []models.Client, id string) string {
	for _, c := range clients {
		if c.ID == id {
			return c.Name
		}
	}
	return UnknownClient
}

// AppointmentClientName is ClientName for appointment listings, which show a dash
func AppointmentClientName(clients []models.Client, id string) string {
	if name := ClientName(clients, id); name != UnknownClient {
		return name
	}
	return UnknownAppointmentClient
}

// LawyerName resolves a user id to its full name
func LawyerName(users []models.User, id string) string {
	for _, u := range users {
		if u.ID == id {
			return u.FullName
		}
	}
	return UnknownLawyer
}

// ProcessNumber resolves a process id to its number
func ProcessNumber(processes []models.Process, id string) string {
	if id == "" {
		return UnknownProcess
	}
	for _, p := range processes {
		if p.ID == id {
			return p.Number
		}
	}
	return UnknownProcess
}

// ResolveClientID accepts a client id, CPF/CNPJ or (part of) a name
func ResolveClientID(clients []models.Client, ref string) (string, error) {
	return resolve(clients, ref, "cliente", func(c models.Client, folded string) (exact, partial bool) {
		if doc, err := parser.NormalizeDocument(ref); err == nil && doc == c.CpfCnpj {
			return true, false
		}
		name := parser.Fold(c.Name)
		return name == folded, strings.Contains(name, folded)
	})
}

// ResolveUserID accepts a user id, username or (part of) a full name
func ResolveUserID(users []models.User, ref string) (string, error) {
	return resolve(users, ref, "advogado", func(u models.User, folded string) (exact, partial bool) {
		if strings.EqualFold(u.Username, strings.TrimSpace(ref)) {
			return true, false
		}
		name := parser.Fold(u.FullName)
		return name == folded, strings.Contains(name, folded)
	})
}

// ResolveProcessID accepts a process id or number
func ResolveProcessID(processes []models.Process, ref string) (string, error) {
	return resolve(processes, ref, "processo", func(p models.Process, folded string) (exact, partial bool) {
		number := parser.Fold(p.Number)
		return number == folded, strings.HasPrefix(number, folded)
	})
}

// resolve matches ref against ids first, then exact matches, then partial matches.
// Only a unique match at the first level that has one is accepted.
func resolve[T Record[T]](records []T, ref, kind string, match func(T, string) (bool, bool)) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrMissingID
	}

	for _, r := range records {
		if r.RecordID() == ref {
			return ref, nil
		}
	}

	folded := parser.Fold(ref)
	var exact, partial []string
	for _, r := range records {
		isExact, isPartial := match(r, folded)
		switch {
		case isExact:
			exact = append(exact, r.RecordID())
		case isPartial:
			partial = append(partial, r.RecordID())
		}
	}

	for _, ids := range [][]string{exact, partial} {
		switch len(ids) {
		case 0:
			continue
		case 1:
			return ids[0], nil
		default:
			return "", fmt.Errorf("%w: %d %ss match %q", ErrAmbiguous, len(ids), kind, ref)
		}
	}
	return "", fmt.Errorf("%w: %s %q", ErrNoMatch, kind, ref)
}
