package service

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecordExpenseAndSettle(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice", "Bob", "Carol")
	ctx := context.Background()
	a, b, c := env.ids["Alice"], env.ids["Bob"], env.ids["Carol"]

	resp, err := env.ledger.RecordExpense(ctx, as(env, "Alice", &api.RecordExpenseRequest{
		Description: "Dinner",
		Total:       d("1500"),
		Payers:      map[string]decimal.Decimal{a: d("1500")},
		EqualSplit:  []string{a, b, c},
	}))
	require.NoError(t, err)
	expense := resp.Msg.Expense
	require.NotEmpty(t, expense.ID)
	assert.Equal(t, a, expense.CreatedBy)
	require.Len(t, expense.PaidBy, 1)
	require.Len(t, expense.OwedBy, 3)
	for _, owed := range expense.OwedBy {
		assert.True(t, owed.Amount.Equal(d("500")), "%s owes %s", owed.UserID, owed.Amount)
	}

	balance, err := env.ledger.GetBalance(ctx, as(env, "Alice", &api.GetBalanceRequest{}))
	require.NoError(t, err)
	assert.Equal(t, a, balance.Msg.UserID)
	assert.True(t, balance.Msg.Balance.Equal(d("1000")))

	balance, err = env.ledger.GetBalance(ctx, as(env, "Bob", &api.GetBalanceRequest{}))
	require.NoError(t, err)
	assert.True(t, balance.Msg.Balance.Equal(d("-500")))

	settle, err := env.ledger.Settle(ctx, as(env, "Bob", &api.SettleRequest{}))
	require.NoError(t, err)
	require.Len(t, settle.Msg.Transactions, 2)

	payers := map[string]bool{}
	for _, tx := range settle.Msg.Transactions {
		assert.Equal(t, a, tx.Payee)
		assert.True(t, tx.Amount.Equal(d("500")))
		assert.Equal(t, tx.Payer+" pays 500.00 to "+a, tx.Summary)
		payers[tx.Payer] = true
	}
	assert.Equal(t, map[string]bool{b: true, c: true}, payers)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ExpensesRecorded))
}

func TestRecordExpenseValidation(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice", "Bob")
	ctx := context.Background()
	a, b := env.ids["Alice"], env.ids["Bob"]

	tests := []struct {
		name string
		req  *api.RecordExpenseRequest
		kind string
	}{
		{
			name: "owers do not add up",
			req: &api.RecordExpenseRequest{
				Total:  d("1500"),
				Payers: map[string]decimal.Decimal{a: d("1500")},
				Owers:  map[string]decimal.Decimal{a: d("500"), b: d("500")},
			},
			kind: "AMOUNT_MISMATCH",
		},
		{
			name: "unknown user",
			req: &api.RecordExpenseRequest{
				Total:  d("10"),
				Payers: map[string]decimal.Decimal{a: d("10")},
				Owers:  map[string]decimal.Decimal{"ghost": d("10")},
			},
			kind: "UNKNOWN_USER",
		},
		{
			name: "nobody owes",
			req: &api.RecordExpenseRequest{
				Total:  d("10"),
				Payers: map[string]decimal.Decimal{a: d("10")},
			},
			kind: "EMPTY_SPLIT",
		},
		{
			name: "unknown group",
			req: &api.RecordExpenseRequest{
				Total:   d("10"),
				GroupID: "no-such-group",
				Payers:  map[string]decimal.Decimal{a: d("10")},
				Owers:   map[string]decimal.Decimal{b: d("10")},
			},
			kind: "UNKNOWN_GROUP",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.ledger.RecordExpense(ctx, as(env, "Alice", tc.req))
			require.Error(t, err)

			var connectErr *connect.Error
			require.True(t, errors.As(err, &connectErr))
			assert.Equal(t, connect.CodeInvalidArgument, connectErr.Code())
			assert.Equal(t, tc.kind, connectErr.Meta().Get(api.ValidationKindHeader))
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ValidationFailures.WithLabelValues("AMOUNT_MISMATCH")))
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.ExpensesRecorded))

	settle, err := env.ledger.Settle(ctx, as(env, "Alice", &api.SettleRequest{}))
	require.NoError(t, err)
	assert.Empty(t, settle.Msg.Transactions, "rejected expenses leave no trace")
}

func TestRecordExpenseSplitModes(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice", "Bob")
	ctx := context.Background()
	a, b := env.ids["Alice"], env.ids["Bob"]

	t.Run("itemized with tax", func(t *testing.T) {
		resp, err := env.ledger.RecordExpense(ctx, as(env, "Alice", &api.RecordExpenseRequest{
			Description: "Pizza night",
			Total:       d("33"),
			Subtotal:    d("30"),
			Payers:      map[string]decimal.Decimal{a: d("33")},
			Items: []api.Item{
				{Description: "Pizza", Amount: d("20"), Participants: []string{a, b}},
				{Description: "Beer", Amount: d("10"), Participants: []string{b}},
			},
		}))
		require.NoError(t, err)

		owed := map[string]decimal.Decimal{}
		for _, s := range resp.Msg.Expense.OwedBy {
			owed[s.UserID] = s.Amount
		}
		assert.True(t, owed[a].Equal(d("11")), "got %s", owed[a])
		assert.True(t, owed[b].Equal(d("22")), "got %s", owed[b])
	})

	t.Run("uneven equal split", func(t *testing.T) {
		resp, err := env.ledger.RecordExpense(ctx, as(env, "Bob", &api.RecordExpenseRequest{
			Total:      d("0.05"),
			Payers:     map[string]decimal.Decimal{b: d("0.05")},
			EqualSplit: []string{a, b},
		}))
		require.NoError(t, err)
		sum := decimal.Zero
		for _, s := range resp.Msg.Expense.OwedBy {
			sum = sum.Add(s.Amount)
		}
		assert.True(t, sum.Equal(d("0.05")))
	})

	t.Run("ambiguous split mode", func(t *testing.T) {
		_, err := env.ledger.RecordExpense(ctx, as(env, "Alice", &api.RecordExpenseRequest{
			Total:      d("10"),
			Payers:     map[string]decimal.Decimal{a: d("10")},
			Owers:      map[string]decimal.Decimal{b: d("10")},
			EqualSplit: []string{a, b},
		}))
		assert.Equal(t, connect.CodeInvalidArgument, connectCode(t, err))
	})
}

func TestGroupScopedLedger(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice", "Bob", "Carol")
	ctx := context.Background()
	a, b, c := env.ids["Alice"], env.ids["Bob"], env.ids["Carol"]

	group, err := env.groups.CreateGroup(ctx, as(env, "Alice", &api.CreateGroupRequest{
		Name:    "Trip",
		Members: []string{b},
	}))
	require.NoError(t, err)
	groupID := group.Msg.Group.ID

	_, err = env.ledger.RecordExpense(ctx, as(env, "Alice", &api.RecordExpenseRequest{
		Description: "Hotel",
		Total:       d("200"),
		GroupID:     groupID,
		Payers:      map[string]decimal.Decimal{a: d("200")},
		EqualSplit:  []string{a, b},
	}))
	require.NoError(t, err)

	// A personal expense outside the group.
	_, err = env.ledger.RecordExpense(ctx, as(env, "Carol", &api.RecordExpenseRequest{
		Description: "Taxi",
		Total:       d("30"),
		Payers:      map[string]decimal.Decimal{c: d("30")},
		Owers:       map[string]decimal.Decimal{a: d("30")},
	}))
	require.NoError(t, err)

	t.Run("non member cannot record into group", func(t *testing.T) {
		_, err := env.ledger.RecordExpense(ctx, as(env, "Carol", &api.RecordExpenseRequest{
			Total:   d("10"),
			GroupID: groupID,
			Payers:  map[string]decimal.Decimal{c: d("10")},
			Owers:   map[string]decimal.Decimal{a: d("10")},
		}))
		assert.Equal(t, connect.CodePermissionDenied, connectCode(t, err))
	})

	t.Run("member cannot charge an outsider", func(t *testing.T) {
		_, err := env.ledger.RecordExpense(ctx, as(env, "Alice", &api.RecordExpenseRequest{
			Total:   d("10"),
			GroupID: groupID,
			Payers:  map[string]decimal.Decimal{a: d("10")},
			Owers:   map[string]decimal.Decimal{c: d("10")},
		}))
		var connectErr *connect.Error
		require.ErrorAs(t, err, &connectErr)
		assert.Equal(t, "NOT_GROUP_MEMBER", connectErr.Meta().Get(api.ValidationKindHeader))
	})

	t.Run("group settle ignores personal expenses", func(t *testing.T) {
		settle, err := env.ledger.Settle(ctx, as(env, "Bob", &api.SettleRequest{GroupID: groupID}))
		require.NoError(t, err)
		require.Len(t, settle.Msg.Transactions, 1)
		tx := settle.Msg.Transactions[0]
		assert.Equal(t, b, tx.Payer)
		assert.Equal(t, a, tx.Payee)
		assert.True(t, tx.Amount.Equal(d("100")))
	})

	t.Run("global settle sees everything", func(t *testing.T) {
		settle, err := env.ledger.Settle(ctx, as(env, "Alice", &api.SettleRequest{}))
		require.NoError(t, err)
		total := decimal.Zero
		for _, tx := range settle.Msg.Transactions {
			total = total.Add(tx.Amount)
		}
		// Alice +70, Bob -100, Carol +30
		assert.True(t, total.Equal(d("100")), "got %s", total)
	})

	t.Run("balances carry display names", func(t *testing.T) {
		resp, err := env.ledger.ListBalances(ctx, as(env, "Alice", &api.ListBalancesRequest{GroupID: groupID}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Balances, 2)
		byName := map[string]*api.MemberBalance{}
		for _, mb := range resp.Msg.Balances {
			byName[mb.DisplayName] = mb
		}
		assert.True(t, byName["Alice"].NetBalance.Equal(d("100")))
		assert.True(t, byName["Alice"].TotalPaid.Equal(d("200")))
		assert.True(t, byName["Bob"].TotalOwed.Equal(d("100")))
	})

	t.Run("outsiders cannot read group data", func(t *testing.T) {
		_, err := env.ledger.Settle(ctx, as(env, "Carol", &api.SettleRequest{GroupID: groupID}))
		assert.Equal(t, connect.CodePermissionDenied, connectCode(t, err))

		_, err = env.ledger.ListExpenses(ctx, as(env, "Carol", &api.ListExpensesRequest{GroupID: groupID}))
		assert.Equal(t, connect.CodePermissionDenied, connectCode(t, err))

		_, err = env.ledger.GetBalance(ctx, as(env, "Carol", &api.GetBalanceRequest{UserID: a, GroupID: groupID}))
		assert.Equal(t, connect.CodePermissionDenied, connectCode(t, err))
	})

	t.Run("group balance of another member", func(t *testing.T) {
		resp, err := env.ledger.GetBalance(ctx, as(env, "Bob", &api.GetBalanceRequest{UserID: a, GroupID: groupID}))
		require.NoError(t, err)
		assert.True(t, resp.Msg.Balance.Equal(d("100")))
	})

	t.Run("global balance of another user is private", func(t *testing.T) {
		_, err := env.ledger.GetBalance(ctx, as(env, "Bob", &api.GetBalanceRequest{UserID: a}))
		assert.Equal(t, connect.CodePermissionDenied, connectCode(t, err))
	})

	t.Run("expense listings", func(t *testing.T) {
		inGroup, err := env.ledger.ListExpenses(ctx, as(env, "Bob", &api.ListExpensesRequest{GroupID: groupID}))
		require.NoError(t, err)
		require.Len(t, inGroup.Msg.Expenses, 1)
		assert.Equal(t, "Hotel", inGroup.Msg.Expenses[0].Description)

		carols, err := env.ledger.ListExpenses(ctx, as(env, "Carol", &api.ListExpensesRequest{}))
		require.NoError(t, err)
		require.Len(t, carols.Msg.Expenses, 1)
		assert.Equal(t, "Taxi", carols.Msg.Expenses[0].Description)

		alices, err := env.ledger.ListExpenses(ctx, as(env, "Alice", &api.ListExpensesRequest{}))
		require.NoError(t, err)
		assert.Len(t, alices.Msg.Expenses, 2)
	})
}

func TestGetExpense(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice", "Bob", "Carol")
	ctx := context.Background()
	a, b := env.ids["Alice"], env.ids["Bob"]

	resp, err := env.ledger.RecordExpense(ctx, as(env, "Alice", &api.RecordExpenseRequest{
		Description: "Lunch",
		Total:       d("40"),
		Payers:      map[string]decimal.Decimal{a: d("40")},
		Owers:       map[string]decimal.Decimal{a: d("20"), b: d("20")},
	}))
	require.NoError(t, err)
	id := resp.Msg.Expense.ID

	got, err := env.ledger.GetExpense(ctx, as(env, "Bob", &api.GetExpenseRequest{ExpenseID: id}))
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Msg.Expense.Description)
	assert.True(t, got.Msg.Expense.Total.Equal(d("40")))

	_, err = env.ledger.GetExpense(ctx, as(env, "Carol", &api.GetExpenseRequest{ExpenseID: id}))
	assert.Equal(t, connect.CodePermissionDenied, connectCode(t, err))

	_, err = env.ledger.GetExpense(ctx, as(env, "Alice", &api.GetExpenseRequest{ExpenseID: "missing"}))
	assert.Equal(t, connect.CodeNotFound, connectCode(t, err))
}

func TestLedgerRequiresAuthentication(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.ledger.Settle(context.Background(), connect.NewRequest(&api.SettleRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connectCode(t, err))

	req := connect.NewRequest(&api.SettleRequest{})
	req.Header().Set("Authorization", "Bearer forged")
	_, err = env.ledger.Settle(context.Background(), req)
	assert.Equal(t, connect.CodeUnauthenticated, connectCode(t, err))
}
