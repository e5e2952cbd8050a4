package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const splitColumns = `s.expense_id, s.user_id, s.role, s.amount`

// CreateExpense persists an expense and its split records in a single transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.SplitRecord) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO expenses (id, description, total, group_id, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		expense.ID, expense.Description, expense.Total, nullable(expense.GroupID),
		expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range splits {
		split := &splits[i]
		split.ExpenseID = expense.ID
		_, err = tx.ExecContext(ctx, s.q(
			`INSERT INTO split_records (expense_id, user_id, role, amount) VALUES (?, ?, ?, ?)`),
			split.ExpenseID, split.UserID, string(split.Role), split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, description, total, group_id, created_by, created_at FROM expenses WHERE id = ?`),
		expenseID)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpenses retrieves the expenses in scope, newest first.
func (s *Store) ListExpenses(ctx context.Context, scope models.Scope) ([]*models.Expense, error) {
	query := `SELECT id, description, total, group_id, created_by, created_at FROM expenses`
	var args []any
	if !scope.IsGlobal() {
		query += ` WHERE group_id = ?`
		args = append(args, scope.GroupID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListSplitsByExpense retrieves the split records of one expense.
func (s *Store) ListSplitsByExpense(ctx context.Context, expenseID string) ([]models.SplitRecord, error) {
	return s.querySplits(ctx,
		`SELECT `+splitColumns+` FROM split_records s
		 WHERE s.expense_id = ?
		 ORDER BY s.role, s.user_id`, expenseID)
}

// ListSplitsByUser retrieves a user's split records within scope.
func (s *Store) ListSplitsByUser(ctx context.Context, userID string, scope models.Scope) ([]models.SplitRecord, error) {
	query := `SELECT ` + splitColumns + ` FROM split_records s
		JOIN expenses e ON e.id = s.expense_id
		WHERE s.user_id = ?`
	args := []any{userID}
	if !scope.IsGlobal() {
		query += ` AND e.group_id = ?`
		args = append(args, scope.GroupID)
	}
	query += ` ORDER BY e.created_at, s.expense_id, s.role`
	return s.querySplits(ctx, query, args...)
}

// ListSplitsByScope retrieves every split record within scope.
func (s *Store) ListSplitsByScope(ctx context.Context, scope models.Scope) ([]models.SplitRecord, error) {
	query := `SELECT ` + splitColumns + ` FROM split_records s
		JOIN expenses e ON e.id = s.expense_id`
	var args []any
	if !scope.IsGlobal() {
		query += ` WHERE e.group_id = ?`
		args = append(args, scope.GroupID)
	}
	query += ` ORDER BY e.created_at, s.expense_id, s.role, s.user_id`
	return s.querySplits(ctx, query, args...)
}

func (s *Store) querySplits(ctx context.Context, query string, args ...any) ([]models.SplitRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query split records: %w", err)
	}
	defer rows.Close()

	var splits []models.SplitRecord
	for rows.Next() {
		var split models.SplitRecord
		var role string
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &role, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split record: %w", err)
		}
		split.Role = models.Role(role)
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split records: %w", err)
	}
	return splits, nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var groupID sql.NullString
	if err := row.Scan(&e.ID, &e.Description, &e.Total, &groupID, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.GroupID = groupID.String
	return e, nil
}
