// Package store defines the record store the handlers persist to. Two
// implementations exist: the Apps-Script spreadsheet web app (store/sheet)
// and a local SQL database (store/local).
package store

import (
	"context"
	"errors"
	"fmt"

	"pense-backend/internal/models"
)

// ErrNotFound is returned when an id does not exist in the store.
var ErrNotFound = errors.New("record not found")

// RemoteError wraps a failed call to the remote store. The computed in-memory
// state is kept by the caller; there is no automatic retry.
type RemoteError struct {
	Op  string // e.g. "add bon"
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

type Store interface {
	ListBons(ctx context.Context) ([]models.Bon, error)
	GetBon(ctx context.Context, id string) (models.Bon, error)
	AddBon(ctx context.Context, b models.Bon) error
	UpdateBon(ctx context.Context, b models.Bon) error
	DeleteBon(ctx context.Context, id string) error

	ListFrais(ctx context.Context) ([]models.Frais, error)
	AddFrais(ctx context.Context, f models.Frais) error
	UpdateFrais(ctx context.Context, f models.Frais) error
	DeleteFrais(ctx context.Context, id string) error
}
