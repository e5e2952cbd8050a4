// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists registered users.
type UserStore interface {
	// CreateUser inserts a new user. The ID must already be set.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	// Unknown IDs are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UserExists reports whether a user with the ID is registered.
	UserExists(ctx context.Context, id string) (bool, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group with its members.
	// The ID and CreatedAt fields are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID is a member of, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMembers adds users to a group. Existing members are ignored.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error

	// GroupMembers returns the member IDs of a group, sorted.
	// Returns ErrNotFound if the group does not exist.
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

// ExpenseStore persists expenses and their split records.
// Records are immutable: there is no update path.
type ExpenseStore interface {
	// CreateExpense writes an expense and all of its split records atomically.
	// Either everything becomes visible or nothing does.
	// The ID and CreatedAt fields are populated by the store when empty, and
	// every split's ExpenseID is set to the expense ID.
	CreateExpense(ctx context.Context, expense *models.Expense, splits []models.SplitRecord) error

	// GetExpense returns ErrNotFound if the expense does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns the expenses in scope, newest first.
	ListExpenses(ctx context.Context, scope models.Scope) ([]*models.Expense, error)

	// ListSplitsByExpense returns an expense's split records ordered by role then user.
	ListSplitsByExpense(ctx context.Context, expenseID string) ([]models.SplitRecord, error)

	// ListSplitsByUser returns userID's split records within scope.
	ListSplitsByUser(ctx context.Context, userID string, scope models.Scope) ([]models.SplitRecord, error)

	// ListSplitsByScope returns every split record within scope.
	ListSplitsByScope(ctx context.Context, scope models.Scope) ([]models.SplitRecord, error)
}

// Store is the full persistence surface of the service.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, memory)
// without changing the ledger or the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore

	// Close releases any resources held by the store.
	Close() error
}
