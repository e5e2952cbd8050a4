package models

import "github.com/shopspring/decimal"

// Expense represents one shared cost event.
// It is created once together with its split records and never mutated.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label (e.g., "Dinner at Thalassa").
	Description string

	// Total is the full amount of the expense.
	Total decimal.Decimal

	// GroupID scopes the expense to a group. Empty means a personal expense.
	GroupID string

	// CreatedBy is the user ID that recorded the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Scope returns the narrowest scope the expense belongs to.
func (e *Expense) Scope() Scope {
	return Scope{GroupID: e.GroupID}
}

// Role says whether a split record is money put in or money owed.
type Role string

const (
	// RolePaid marks a user's contribution toward the expense total.
	RolePaid Role = "paid"
	// RoleOwed marks a user's share of the expense.
	RoleOwed Role = "owed"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePaid || r == RoleOwed
}

// SplitRecord is one user's paid or owed amount within a single expense.
// There is at most one record per (expense, user, role).
type SplitRecord struct {
	ExpenseID string
	UserID    string
	Role      Role
	Amount    decimal.Decimal
}

// Signed returns the record's contribution to the user's net balance:
// positive for paid, negative for owed.
func (s SplitRecord) Signed() decimal.Decimal {
	if s.Role == RoleOwed {
		return s.Amount.Neg()
	}
	return s.Amount
}
