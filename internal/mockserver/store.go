package mockserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/saj/internal/models"
)

var (
	errNotFound  = errors.New("not found")
	errConflict  = errors.New("conflict")
	errBadRecord = errors.New("bad record")
)

// storeError carries the Portuguese message the API answers with
type storeError struct {
	kind    error
	message string
}

func (e *storeError) Error() string { return e.message }

func (e *storeError) Is(target error) bool { return target == e.kind }

func notFound(format string, args ...any) error {
	return &storeError{kind: errNotFound, message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &storeError{kind: errConflict, message: fmt.Sprintf(format, args...)}
}

func badRecord(format string, args ...any) error {
	return &storeError{kind: errBadRecord, message: fmt.Sprintf(format, args...)}
}

type record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// table keeps records in insertion order
type table[T record[T]] struct {
	rows  map[string]T
	order []string
}

func newTable[T record[T]]() *table[T] {
	return &table[T]{rows: map[string]T{}}
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) insert(row T) T {
	row = row.WithID(uuid.NewString())
	t.rows[row.RecordID()] = row
	t.order = append(t.order, row.RecordID())
	return row
}

func (t *table[T]) replace(id string, row T) T {
	row = row.WithID(id)
	t.rows[id] = row
	return row
}

func (t *table[T]) remove(id string) {
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *table[T]) count(match func(T) bool) int {
	n := 0
	for _, row := range t.rows {
		if match(row) {
			n++
		}
	}
	return n
}

// userRow is a user with its role; Password holds the bcrypt hash
type userRow struct {
	models.User
	Role string
}

func (u userRow) RecordID() string { return u.ID }

func (u userRow) WithID(id string) userRow {
	u.ID = id
	return u
}

// public strips the password hash
func (u userRow) public() models.User {
	user := u.User
	user.Password = ""
	return user
}

// store is the in-memory database of the mock API, with the referential rules of
// the real backend
type store struct {
	mu           sync.RWMutex
	clients      *table[models.Client]
	processes    *table[models.Process]
	appointments *table[models.Appointment]
	users        *table[userRow]
	bcryptCost   int
}

func newStore(bcryptCost int) *store {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &store{
		clients:      newTable[models.Client](),
		processes:    newTable[models.Process](),
		appointments: newTable[models.Appointment](),
		users:        newTable[userRow](),
		bcryptCost:   bcryptCost,
	}
}

// authenticate checks a username/password pair
func (s *store) authenticate(username, password string) (userRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users.rows {
		if strings.EqualFold(u.Username, username) {
			if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
				return userRow{}, false
			}
			return u, true
		}
	}
	return userRow{}, false
}

func (s *store) findUser(id string) (userRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.get(id)
}

// Clients

func (s *store) listClients() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.list()
}

func (s *store) getClient(id string) (models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients.get(id)
	if !ok {
		return models.Client{}, notFound("Cliente não encontrado com id: %s", id)
	}
	return c, nil
}

func (s *store) createClient(c models.Client) models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients.insert(c)
}

func (s *store) updateClient(id string, c models.Client) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients.get(id); !ok {
		return models.Client{}, notFound("Cliente não encontrado com id: %s", id)
	}
	return s.clients.replace(id, c), nil
}

func (s *store) deleteClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients.get(id); !ok {
		return notFound("Cliente não encontrado com id: %s", id)
	}
	if n := s.processes.count(func(p models.Process) bool { return p.ClientID == id }); n > 0 {
		return conflict("Não é possível excluir este cliente. Existem %d processo(s) vinculado(s) a ele. Por favor, exclua os PROCESSOS primeiro.", n)
	}
	if n := s.appointments.count(func(a models.Appointment) bool { return a.ClientID == id }); n > 0 {
		return conflict("Não é possível excluir este cliente. Existem %d agendamento(s) vinculado(s) a ele. Por favor, exclua os AGENDAMENTOS primeiro.", n)
	}
	s.clients.remove(id)
	return nil
}

// Processes

func (s *store) listProcesses() []models.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes.list()
}

func (s *store) getProcess(id string) (models.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes.get(id)
	if !ok {
		return models.Process{}, notFound("Processo não encontrado com id: %s", id)
	}
	return p, nil
}

func (s *store) createProcess(p models.Process) (models.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients.get(p.ClientID); !ok {
		return models.Process{}, badRecord("Cliente não encontrado com id: %s", p.ClientID)
	}
	return s.processes.insert(p), nil
}

func (s *store) updateProcess(id string, p models.Process) (models.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes.get(id); !ok {
		return models.Process{}, notFound("Processo não encontrado com id: %s", id)
	}
	if _, ok := s.clients.get(p.ClientID); !ok {
		return models.Process{}, badRecord("Cliente não encontrado com id: %s", p.ClientID)
	}
	return s.processes.replace(id, p), nil
}

func (s *store) deleteProcess(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes.get(id); !ok {
		return notFound("Processo não encontrado com id: %s", id)
	}
	if n := s.appointments.count(func(a models.Appointment) bool { return a.ProcessID == id }); n > 0 {
		return conflict("Não é possível excluir este processo. Existem %d agendamento(s) vinculado(s) a ele. Por favor, exclua os AGENDAMENTOS primeiro.", n)
	}
	s.processes.remove(id)
	return nil
}

// Appointments

func (s *store) listAppointments(lawyerID string) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.appointments.list()
	if lawyerID == "" {
		return all
	}
	out := make([]models.Appointment, 0, len(all))
	for _, a := range all {
		if a.LawyerID == lawyerID {
			out = append(out, a)
		}
	}
	return out
}

func (s *store) getAppointment(id string) (models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments.get(id)
	if !ok {
		return models.Appointment{}, notFound("Agendamento não encontrado com id: %s", id)
	}
	return a, nil
}

// checkAppointment verifies the references of an appointment. Callers hold the lock.
func (s *store) checkAppointment(a models.Appointment) error {
	if _, ok := s.users.get(a.LawyerID); !ok {
		return badRecord("Advogado não encontrado com id: %s", a.LawyerID)
	}
	if _, ok := s.clients.get(a.ClientID); !ok {
		return badRecord("Cliente não encontrado com id: %s", a.ClientID)
	}
	if a.ProcessID != "" {
		if _, ok := s.processes.get(a.ProcessID); !ok {
			return badRecord("Processo não encontrado com id: %s", a.ProcessID)
		}
	}
	return nil
}

func (s *store) createAppointment(a models.Appointment) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAppointment(a); err != nil {
		return models.Appointment{}, err
	}
	return s.appointments.insert(a), nil
}

func (s *store) updateAppointment(id string, a models.Appointment) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments.get(id); !ok {
		return models.Appointment{}, notFound("Agendamento não encontrado com id: %s", id)
	}
	if err := s.checkAppointment(a); err != nil {
		return models.Appointment{}, err
	}
	return s.appointments.replace(id, a), nil
}

func (s *store) deleteAppointment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments.get(id); !ok {
		return notFound("Agendamento não encontrado com id: %s", id)
	}
	s.appointments.remove(id)
	return nil
}

// Users

func (s *store) listUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.users.list()
	out := make([]models.User, 0, len(rows))
	for _, u := range rows {
		out = append(out, u.public())
	}
	return out
}

func (s *store) getUser(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users.get(id)
	if !ok {
		return models.User{}, notFound("Usuário não encontrado com id: %s", id)
	}
	return u.public(), nil
}

// usernameTaken reports whether another user has username. Callers hold the lock.
func (s *store) usernameTaken(username, exceptID string) bool {
	return s.users.count(func(u userRow) bool {
		return u.ID != exceptID && strings.EqualFold(u.Username, username)
	}) > 0
}

func (s *store) createUser(u models.User, role string) (models.User, error) {
	if u.Password == "" {
		return models.User{}, badRecord("Senha é obrigatória")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(u.Username, "") {
		return models.User{}, conflict("Nome de usuário já existe: %s", u.Username)
	}
	u.Password = string(hash)
	return s.users.insert(userRow{User: u, Role: role}).public(), nil
}

func (s *store) updateUser(id string, u models.User) (models.User, error) {
	// Hash outside the lock, bcrypt is slow
	var hash []byte
	if u.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(u.Password), s.bcryptCost); err != nil {
			return models.User{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users.get(id)
	if !ok {
		return models.User{}, notFound("Usuário não encontrado com id: %s", id)
	}
	if s.usernameTaken(u.Username, id) {
		return models.User{}, conflict("Nome de usuário já existe: %s", u.Username)
	}

	existing.Username = u.Username
	existing.FullName = u.FullName
	if hash != nil {
		existing.Password = string(hash)
	}
	return s.users.replace(id, existing).public(), nil
}

func (s *store) deleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users.get(id); !ok {
		return notFound("Usuário não encontrado com id: %s", id)
	}
	if n := s.appointments.count(func(a models.Appointment) bool { return a.LawyerID == id }); n > 0 {
		return conflict("Não é possível excluir este usuário. Existem %d agendamento(s) vinculado(s) a ele. Por favor, exclua os AGENDAMENTOS primeiro.", n)
	}
	s.users.remove(id)
	return nil
}
