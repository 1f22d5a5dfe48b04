package database

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Store runs the queries of the application. A Store without a database
// connection is unavailable: reads return empty results and writes are
// skipped, both without an error.
type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// New returns a Store backed by db. db may be nil.
func New(db *gorm.DB, log logrus.FieldLogger) *Store {
	return &Store{db: db, log: log}
}

// Available reports whether the store has a database connection.
func (s *Store) Available() bool {
	return s.db != nil
}

// WithTx runs fn inside a transaction. An unavailable store runs fn directly.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) unavailable(op string) bool {
	if s.db != nil {
		return false
	}
	s.log.WithField("op", op).Warn("database unavailable")
	return true
}

// first returns nil without an error when no row matches.
func first[T any](q *gorm.DB) (*T, error) {
	var v T
	err := q.First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrExists
	}
	return err
}
