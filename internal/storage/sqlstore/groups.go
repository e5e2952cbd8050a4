package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group and its members in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`),
		group.ID, group.Name, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if err := s.insertMembers(ctx, tx, group.ID, group.Members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, name, created_by, created_at FROM groups WHERE id = ?`), groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.Members, err = s.members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser retrieves the groups a user belongs to, newest first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC, g.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	for _, g := range groups {
		if g.Members, err = s.members(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// AddGroupMembers adds users to an existing group.
func (s *Store) AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM groups WHERE id = ?`), groupID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}

	if err := s.insertMembers(ctx, tx, groupID, userIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GroupMembers returns the sorted member IDs of a group.
func (s *Store) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM groups WHERE id = ?`), groupID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check group existence: %w", err)
	}
	return s.members(ctx, groupID)
}

func (s *Store) insertMembers(ctx context.Context, tx *sql.Tx, groupID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO group_members (group_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`),
			groupID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}
	return nil
}

func (s *Store) members(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	// Byte order, independent of the database collation.
	slices.Sort(members)
	return members, nil
}
