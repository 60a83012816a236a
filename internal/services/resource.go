package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/models"
)

var (
	// ErrMissingID is returned when an id-addressed call gets an empty id
	ErrMissingID = errors.New("id is required")
	// ErrNoPayload is returned when a single-record call comes back without data
	ErrNoPayload = errors.New("response carried no data")
)

// Record is implemented by the API records
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// Resource maps one REST resource to typed CRUD calls
type Resource[T Record[T]] struct {
	client *api.Client
	base   string
}

// NewResource creates a resource service rooted at base, e.g. "/clients"
func NewResource[T Record[T]](client *api.Client, base string) *Resource[T] {
	return &Resource[T]{client: client, base: "/" + strings.Trim(base, "/")}
}

// Path returns the resource's base path
func (r *Resource[T]) Path() string {
	return r.base
}

// List fetches every record. A response without data yields a nil slice.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	return r.list(ctx, r.base)
}

func (r *Resource[T]) list(ctx context.Context, path string) ([]T, error) {
	env, err := api.Get[[]T](ctx, r.client, path)
	if err != nil {
		return nil, err
	}
	if !env.HasData() {
		return nil, nil
	}
	return *env.Data, nil
}

// Get fetches one record by id
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	path, err := r.itemPath(id)
	if err != nil {
		return zero, err
	}
	return one(api.Get[T](ctx, r.client, path))
}

// Create validates and posts a record. The id is never sent.
func (r *Resource[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if err := models.Validate(record); err != nil {
		return zero, err
	}
	return one(api.Post[T](ctx, r.client, r.base, record.WithID("")))
}

// Update validates and puts a record under id
func (r *Resource[T]) Update(ctx context.Context, id string, record T) (T, error) {
	var zero T
	path, err := r.itemPath(id)
	if err != nil {
		return zero, err
	}
	if err := models.Validate(record); err != nil {
		return zero, err
	}
	return one(api.Put[T](ctx, r.client, path, record.WithID("")))
}

// Delete removes the record with id
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	_, err = api.Delete[struct{}](ctx, r.client, path)
	return err
}

func (r *Resource[T]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return r.base + "/" + url.PathEscape(id), nil
}

func one[T any](env *api.Envelope[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if !env.HasData() {
		return zero, ErrNoPayload
	}
	return *env.Data, nil
}
