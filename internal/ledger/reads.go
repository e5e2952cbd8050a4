package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
)

// SplitsFor returns the paid and owed records of one expense, each ordered
// by user ID. ErrNotFound is returned for unknown expenses.
func (l *Ledger) SplitsFor(ctx context.Context, expenseID string) (paidBy, owedBy []models.SplitRecord, err error) {
	if _, err := l.store.GetExpense(ctx, expenseID); err != nil {
		return nil, nil, fmt.Errorf("SplitsFor: %w", err)
	}

	splits, err := l.store.ListSplitsByExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, fmt.Errorf("SplitsFor: %w", err)
	}

	for _, s := range splits {
		switch s.Role {
		case models.RolePaid:
			paidBy = append(paidBy, s)
		case models.RoleOwed:
			owedBy = append(owedBy, s)
		}
	}
	byUser := func(a, b models.SplitRecord) int { return cmp.Compare(a.UserID, b.UserID) }
	slices.SortFunc(paidBy, byUser)
	slices.SortFunc(owedBy, byUser)
	return paidBy, owedBy, nil
}

// SplitsForUser returns every record naming userID within scope.
func (l *Ledger) SplitsForUser(ctx context.Context, userID string, scope models.Scope) ([]models.SplitRecord, error) {
	splits, err := l.store.ListSplitsByUser(ctx, userID, scope)
	if err != nil {
		return nil, fmt.Errorf("SplitsForUser: %w", err)
	}
	return splits, nil
}

// SplitsInScope returns every record within scope.
func (l *Ledger) SplitsInScope(ctx context.Context, scope models.Scope) ([]models.SplitRecord, error) {
	splits, err := l.store.ListSplitsByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("SplitsInScope: %w", err)
	}
	return splits, nil
}

// Expense returns one expense. ErrNotFound is returned for unknown IDs.
func (l *Ledger) Expense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e, err := l.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("Expense: %w", err)
	}
	return e, nil
}

// Expenses lists the expenses in scope, newest first.
func (l *Ledger) Expenses(ctx context.Context, scope models.Scope) ([]*models.Expense, error) {
	expenses, err := l.store.ListExpenses(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("Expenses: %w", err)
	}
	return expenses, nil
}
