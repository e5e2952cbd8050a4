// Package memory provides an in-process storage.Store used for tests and
// ephemeral deployments.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type splitKey struct {
	userID string
	role   models.Role
}

// Store keeps everything in maps guarded by a single RWMutex.
// Values are copied on the way in and out.
type Store struct {
	mu sync.RWMutex

	users   map[string]models.User
	byEmail map[string]string

	groups  map[string]models.Group
	members map[string]map[string]struct{}

	expenses map[string]models.Expense
	splits   map[string][]models.SplitRecord
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		byEmail:  make(map[string]string),
		groups:   make(map[string]models.Group),
		members:  make(map[string]map[string]struct{}),
		expenses: make(map[string]models.Expense),
		splits:   make(map[string][]models.SplitRecord),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return fmt.Errorf("email %s already registered", user.Email)
	}
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (s *Store) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if _, ok := s.groups[group.ID]; ok {
		return fmt.Errorf("group %s already exists", group.ID)
	}

	g := *group
	g.Members = nil
	s.groups[g.ID] = g
	s.members[g.ID] = make(map[string]struct{}, len(group.Members))
	for _, id := range group.Members {
		s.members[g.ID][id] = struct{}{}
	}
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	g.Members = s.memberList(groupID)
	return &g, nil
}

func (s *Store) ListGroupsForUser(_ context.Context, userID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*models.Group
	for id, members := range s.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		g := s.groups[id]
		g.Members = s.memberList(id)
		groups = append(groups, &g)
	}
	slices.SortFunc(groups, func(a, b *models.Group) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return groups, nil
}

func (s *Store) AddGroupMembers(_ context.Context, groupID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.members[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	for _, id := range userIDs {
		members[id] = struct{}{}
	}
	return nil
}

func (s *Store) GroupMembers(_ context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return s.memberList(groupID), nil
}

func (s *Store) memberList(groupID string) []string {
	ids := make([]string, 0, len(s.members[groupID]))
	for id := range s.members[groupID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense, splits []models.SplitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if _, ok := s.expenses[expense.ID]; ok {
		return fmt.Errorf("expense %s already exists", expense.ID)
	}
	if expense.GroupID != "" {
		if _, ok := s.groups[expense.GroupID]; !ok {
			return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
		}
	}

	// Validate everything before mutating so a failure leaves no trace.
	seen := make(map[splitKey]struct{}, len(splits))
	for _, split := range splits {
		key := splitKey{split.UserID, split.Role}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate split record for %s (%s)", split.UserID, split.Role)
		}
		seen[key] = struct{}{}
	}

	stored := make([]models.SplitRecord, len(splits))
	for i := range splits {
		splits[i].ExpenseID = expense.ID
		stored[i] = splits[i]
	}
	s.expenses[expense.ID] = *expense
	s.splits[expense.ID] = stored
	return nil
}

func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return &e, nil
}

func (s *Store) ListExpenses(_ context.Context, scope models.Scope) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Expense
	for _, e := range s.expenses {
		if scope.Contains(e.GroupID) {
			out = append(out, &e)
		}
	}
	slices.SortFunc(out, func(a, b *models.Expense) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) ListSplitsByExpense(_ context.Context, expenseID string) ([]models.SplitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.splits[expenseID])
	slices.SortFunc(out, func(a, b models.SplitRecord) int {
		if c := cmp.Compare(a.Role, b.Role); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out, nil
}

func (s *Store) ListSplitsByUser(_ context.Context, userID string, scope models.Scope) ([]models.SplitRecord, error) {
	return s.collect(scope, func(r models.SplitRecord) bool { return r.UserID == userID }), nil
}

func (s *Store) ListSplitsByScope(_ context.Context, scope models.Scope) ([]models.SplitRecord, error) {
	return s.collect(scope, func(models.SplitRecord) bool { return true }), nil
}

// collect returns matching records in expense creation order.
func (s *Store) collect(scope models.Scope, keep func(models.SplitRecord) bool) []models.SplitRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]models.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if scope.Contains(e.GroupID) {
			expenses = append(expenses, e)
		}
	}
	slices.SortFunc(expenses, func(a, b models.Expense) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var out []models.SplitRecord
	for _, e := range expenses {
		for _, r := range s.splits[e.ID] {
			if keep(r) {
				out = append(out, r)
			}
		}
	}
	return out
}
