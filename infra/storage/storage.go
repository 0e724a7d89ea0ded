// Package storage implements the payment repositories on SQLite, PostgreSQL
// and memory.
package storage

import (
	"context"
	"fmt"

	"github.com/mstgnz/thaipay/infra/config"
	"github.com/mstgnz/thaipay/payment"
)

// Store bundles the repositories of one backend.
type Store interface {
	Methods() payment.MethodRepository
	Transactions() payment.TransactionRepository
	Orders() payment.OrderRepository
	Ping(ctx context.Context) error
	Close() error
}

// Close is a no-op for the memory store.
func (s *Memory) Close() error { return nil }

// Ping always succeeds for the memory store.
func (s *Memory) Ping(context.Context) error { return nil }

// Open picks the backend named by cfg.StorageDriver.
func Open(cfg *config.AppConfig) (Store, error) {
	switch cfg.StorageDriver {
	case "memory":
		return NewMemory(), nil
	case "postgres":
		return OpenPostgres(cfg.DatabaseURL)
	case "sqlite", "":
		return OpenSQLite(cfg.SQLitePath)
	}
	return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
}
