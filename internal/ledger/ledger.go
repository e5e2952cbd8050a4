// Package ledger is the authoritative record of expenses and their split
// records. Every expense is validated against the per-expense invariants
// before it is committed, and commits are serialized so balances computed
// from the ledger always conserve money.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const tracerName = "github.com/mmynk/splitledger/internal/ledger"

// Directory answers the user and group questions validation needs.
type Directory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	// GroupMembers returns storage.ErrNotFound for unknown groups.
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

// Invalidator drops derived state for scopes touched by a commit.
type Invalidator interface {
	Invalidate(ctx context.Context, scopes ...models.Scope) error
}

// Ledger records expenses. It is safe for concurrent use.
type Ledger struct {
	store       storage.ExpenseStore
	dir         Directory
	invalidator Invalidator
	now         func() time.Time
	tracer      trace.Tracer

	// mu serializes validate, commit and invalidate.
	mu sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithInvalidator registers a cache to invalidate after each commit.
func WithInvalidator(inv Invalidator) Option {
	return func(l *Ledger) {
		l.invalidator = inv
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = t
	}
}

// New creates a Ledger backed by store, validating users and groups against dir.
func New(store storage.ExpenseStore, dir Directory, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		dir:   dir,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	return l
}
