// Package storagetest holds a conformance suite run against every
// storage.Store backend.
package storagetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Run exercises a backend. newStore must return an empty store; it is
// called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("Expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("Scopes", func(t *testing.T) { testScopes(t, newStore(t)) })
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()

	alice := models.NewUser("alice@example.com", "Alice", "hash-a")
	bob := models.NewUser("bob@example.com", "Bob", "hash-b")
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Other", "hash")
		assert.Error(t, store.CreateUser(ctx, dup))
	})

	t.Run("lookup by email and id", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice, got)

		got, err = store.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, bob, got)
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.GetUserByID(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("batch lookup omits unknown ids", func(t *testing.T) {
		users, err := store.GetUsersByIDs(ctx, []string{alice.ID, "ghost", bob.ID})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "Alice", users[alice.ID].DisplayName)

		users, err = store.GetUsersByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("existence", func(t *testing.T) {
		ok, err := store.UserExists(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.UserExists(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func testGroups(t *testing.T, store storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Trip", Members: []string{"u2", "u1"}, CreatedBy: "u1"}
	require.NoError(t, store.CreateGroup(ctx, group))
	assert.NotEmpty(t, group.ID)
	assert.NotZero(t, group.CreatedAt)

	t.Run("get returns sorted members", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip", got.Name)
		assert.Equal(t, "u1", got.CreatedBy)
		assert.Equal(t, []string{"u1", "u2"}, got.Members)
	})

	t.Run("add members ignores existing", func(t *testing.T) {
		require.NoError(t, store.AddGroupMembers(ctx, group.ID, []string{"u3", "u1"}))

		members, err := store.GroupMembers(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, members)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.GroupMembers(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = store.AddGroupMembers(ctx, "ghost", []string{"u1"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list for user", func(t *testing.T) {
		other := &models.Group{Name: "Flat", Members: []string{"u2"}, CreatedBy: "u2"}
		require.NoError(t, store.CreateGroup(ctx, other))

		groups, err := store.ListGroupsForUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, group.ID, groups[0].ID)

		groups, err = store.ListGroupsForUser(ctx, "u2")
		require.NoError(t, err)
		assert.Len(t, groups, 2)

		groups, err = store.ListGroupsForUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}

func testExpenses(t *testing.T, store storage.Store) {
	ctx := context.Background()

	expense := &models.Expense{Description: "Dinner", Total: d("3000"), CreatedBy: "A"}
	splits := []models.SplitRecord{
		{UserID: "A", Role: models.RolePaid, Amount: d("3000")},
		{UserID: "A", Role: models.RoleOwed, Amount: d("1000")},
		{UserID: "B", Role: models.RoleOwed, Amount: d("1000")},
		{UserID: "C", Role: models.RoleOwed, Amount: d("1000")},
	}
	require.NoError(t, store.CreateExpense(ctx, expense, splits))
	require.NotEmpty(t, expense.ID)
	assert.NotZero(t, expense.CreatedAt)
	for _, s := range splits {
		assert.Equal(t, expense.ID, s.ExpenseID)
	}

	t.Run("get expense", func(t *testing.T) {
		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dinner", got.Description)
		assert.True(t, got.Total.Equal(d("3000")))
		assert.Empty(t, got.GroupID)
		assert.Equal(t, "A", got.CreatedBy)

		_, err = store.GetExpense(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("splits by expense keep amounts exact", func(t *testing.T) {
		got, err := store.ListSplitsByExpense(ctx, expense.ID)
		require.NoError(t, err)
		require.Len(t, got, 4)
		// owed sorts before paid
		assert.Equal(t, models.RoleOwed, got[0].Role)
		assert.Equal(t, "A", got[0].UserID)
		assert.Equal(t, models.RolePaid, got[3].Role)
		assert.True(t, got[3].Amount.Equal(d("3000")))
	})

	t.Run("splits by user", func(t *testing.T) {
		got, err := store.ListSplitsByUser(ctx, "A", models.GlobalScope)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.ListSplitsByUser(ctx, "nobody", models.GlobalScope)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("fractional amounts round-trip", func(t *testing.T) {
		e := &models.Expense{Description: "Coffee", Total: d("10.01"), CreatedBy: "B"}
		require.NoError(t, store.CreateExpense(ctx, e, []models.SplitRecord{
			{UserID: "B", Role: models.RolePaid, Amount: d("10.01")},
			{UserID: "A", Role: models.RoleOwed, Amount: d("3.34")},
			{UserID: "B", Role: models.RoleOwed, Amount: d("3.34")},
			{UserID: "C", Role: models.RoleOwed, Amount: d("3.33")},
		}))

		got, err := store.ListSplitsByUser(ctx, "C", models.GlobalScope)
		require.NoError(t, err)
		require.Len(t, got, 2)
		sum := decimal.Zero
		for _, s := range got {
			sum = sum.Add(s.Signed())
		}
		assert.True(t, sum.Equal(d("-1003.33")), "got %s", sum)
	})

	t.Run("duplicate split rolls back the whole expense", func(t *testing.T) {
		e := &models.Expense{ID: "broken", Description: "Bad", Total: d("10"), CreatedBy: "A"}
		err := store.CreateExpense(ctx, e, []models.SplitRecord{
			{UserID: "A", Role: models.RolePaid, Amount: d("10")},
			{UserID: "A", Role: models.RolePaid, Amount: d("10")},
		})
		require.Error(t, err)

		_, err = store.GetExpense(ctx, "broken")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		got, err := store.ListSplitsByExpense(ctx, "broken")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func testScopes(t *testing.T, store storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Trip", Members: []string{"A", "B"}, CreatedBy: "A"}
	require.NoError(t, store.CreateGroup(ctx, group))

	personal := &models.Expense{Description: "Taxi", Total: d("20"), CreatedBy: "A", CreatedAt: 100}
	require.NoError(t, store.CreateExpense(ctx, personal, []models.SplitRecord{
		{UserID: "A", Role: models.RolePaid, Amount: d("20")},
		{UserID: "B", Role: models.RoleOwed, Amount: d("20")},
	}))

	grouped := &models.Expense{Description: "Hotel", Total: d("200"), GroupID: group.ID, CreatedBy: "B", CreatedAt: 200}
	require.NoError(t, store.CreateExpense(ctx, grouped, []models.SplitRecord{
		{UserID: "B", Role: models.RolePaid, Amount: d("200")},
		{UserID: "A", Role: models.RoleOwed, Amount: d("100")},
		{UserID: "B", Role: models.RoleOwed, Amount: d("100")},
	}))

	t.Run("list expenses newest first", func(t *testing.T) {
		all, err := store.ListExpenses(ctx, models.GlobalScope)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, grouped.ID, all[0].ID)
		assert.Equal(t, personal.ID, all[1].ID)

		inGroup, err := store.ListExpenses(ctx, models.GroupScope(group.ID))
		require.NoError(t, err)
		require.Len(t, inGroup, 1)
		assert.Equal(t, group.ID, inGroup[0].GroupID)
	})

	t.Run("splits by scope", func(t *testing.T) {
		all, err := store.ListSplitsByScope(ctx, models.GlobalScope)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		inGroup, err := store.ListSplitsByScope(ctx, models.GroupScope(group.ID))
		require.NoError(t, err)
		assert.Len(t, inGroup, 3)
		for _, s := range inGroup {
			assert.Equal(t, grouped.ID, s.ExpenseID)
		}

		none, err := store.ListSplitsByScope(ctx, models.GroupScope("other"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("splits by user in scope", func(t *testing.T) {
		got, err := store.ListSplitsByUser(ctx, "A", models.GroupScope(group.ID))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Signed().Equal(d("-100")))

		got, err = store.ListSplitsByUser(ctx, "A", models.GlobalScope)
		require.NoError(t, err)
		require.Len(t, got, 2)
		// ordered by expense creation time
		assert.Equal(t, personal.ID, got[0].ExpenseID)
	})
}
