package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// MemberBalance is one user's totals within a scope.
type MemberBalance struct {
	UserID     string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Total amount paid across all expenses
	TotalOwed  decimal.Decimal // Total share of all expenses
}

// SplitSource is the read side of the ledger the aggregator needs.
type SplitSource interface {
	SplitsForUser(ctx context.Context, userID string, scope models.Scope) ([]models.SplitRecord, error)
	SplitsInScope(ctx context.Context, scope models.Scope) ([]models.SplitRecord, error)
}

// BalanceCache stores computed balance maps per scope.
//
// Load returns the cached map (nil on a miss) together with the scope's current
// version. Store must write under the version obtained from Load, so a result
// computed before an invalidation is never served after it.
type BalanceCache interface {
	Load(ctx context.Context, scope models.Scope) (map[string]decimal.Decimal, string, error)
	Store(ctx context.Context, scope models.Scope, version string, balances map[string]decimal.Decimal) error
}

// Aggregator computes net balances from ledger reads. It holds no ledger state
// of its own; the optional cache is invalidated by the ledger on every commit.
type Aggregator struct {
	src   SplitSource
	cache BalanceCache
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithCache serves AllNetBalances and NetBalance from c when possible.
func WithCache(c BalanceCache) AggregatorOption {
	return func(a *Aggregator) {
		a.cache = c
	}
}

// NewAggregator creates an Aggregator reading from src.
func NewAggregator(src SplitSource, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{src: src}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NetBalance returns paid minus owed for userID within scope.
// Positive means the user is owed money, negative means they owe.
func (a *Aggregator) NetBalance(ctx context.Context, userID string, scope models.Scope) (decimal.Decimal, error) {
	if cached, _ := a.load(ctx, scope); cached != nil {
		return cached[userID], nil
	}

	splits, err := a.src.SplitsForUser(ctx, userID, scope)
	if err != nil {
		return decimal.Zero, fmt.Errorf("NetBalance: %w", err)
	}

	net := decimal.Zero
	for _, s := range splits {
		net = net.Add(s.Signed())
	}
	return net, nil
}

// AllNetBalances returns the net balance of every user with at least one
// split record in scope. Users whose records cancel out exactly are included
// with a zero balance.
func (a *Aggregator) AllNetBalances(ctx context.Context, scope models.Scope) (map[string]decimal.Decimal, error) {
	cached, version := a.load(ctx, scope)
	if cached != nil {
		return cached, nil
	}

	splits, err := a.src.SplitsInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("AllNetBalances: %w", err)
	}
	balances := NetBalances(splits)

	if a.cache != nil && version != "" {
		if err := a.cache.Store(ctx, scope, version, balances); err != nil {
			slog.WarnContext(ctx, "Balance cache store failed", "scope", scope.String(), "error", err)
		}
	}

	return balances, nil
}

// Summaries returns per-user paid/owed totals within scope, sorted by user ID.
func (a *Aggregator) Summaries(ctx context.Context, scope models.Scope) ([]MemberBalance, error) {
	splits, err := a.src.SplitsInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("Summaries: %w", err)
	}

	byUser := make(map[string]*MemberBalance)
	for _, s := range splits {
		mb, ok := byUser[s.UserID]
		if !ok {
			mb = &MemberBalance{UserID: s.UserID}
			byUser[s.UserID] = mb
		}
		switch s.Role {
		case models.RolePaid:
			mb.TotalPaid = mb.TotalPaid.Add(s.Amount)
		case models.RoleOwed:
			mb.TotalOwed = mb.TotalOwed.Add(s.Amount)
		}
	}

	out := make([]MemberBalance, 0, len(byUser))
	for _, id := range slices.Sorted(maps.Keys(byUser)) {
		mb := byUser[id]
		mb.NetBalance = mb.TotalPaid.Sub(mb.TotalOwed)
		out = append(out, *mb)
	}
	return out, nil
}

// NetBalances folds split records into paid-minus-owed per user.
func NetBalances(splits []models.SplitRecord) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, s := range splits {
		balances[s.UserID] = balances[s.UserID].Add(s.Signed())
	}
	return balances
}

func (a *Aggregator) load(ctx context.Context, scope models.Scope) (map[string]decimal.Decimal, string) {
	if a.cache == nil {
		return nil, ""
	}
	cached, version, err := a.cache.Load(ctx, scope)
	if err != nil {
		slog.WarnContext(ctx, "Balance cache load failed", "scope", scope.String(), "error", err)
		return nil, ""
	}
	return cached, version
}
