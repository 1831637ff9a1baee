package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/logger"
)

// ErrOperation wraps every backend failure that is not tolerated.
var ErrOperation = errors.New("database operation failed")

type Store struct {
	client *backend.Client
	log    *logger.Logger
}

func NewStore(client *backend.Client, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		client: client,
		log:    log.With("service", "DataStore"),
	}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.client.DB(ctx)
}

// fail logs and wraps a backend error.
func (s *Store) fail(op string, err error) error {
	err = backend.Translate(err)
	s.log.Error("Database operation failed", "operation", op, "code", backend.CodeOf(err), "error", err)
	return fmt.Errorf("%w: %s: %w", ErrOperation, op, err)
}

// isNoRows reports whether err is the backend's no-row-found condition.
func isNoRows(err error) bool {
	return backend.IsCode(backend.Translate(err), backend.CodeNoRows)
}
