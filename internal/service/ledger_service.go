package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var _ api.LedgerServiceHandler = (*LedgerService)(nil)

var errAmbiguousOwers = errors.New("set exactly one of owers, equal_split or items")

// LedgerService implements the Connect LedgerService
type LedgerService struct {
	ledger     *ledger.Ledger
	aggregator *calculator.Aggregator
	store      storage.Store
	metrics    *metrics.Metrics
}

// NewLedgerService creates a LedgerService. m may be nil.
func NewLedgerService(l *ledger.Ledger, agg *calculator.Aggregator, store storage.Store, m *metrics.Metrics) *LedgerService {
	return &LedgerService{ledger: l, aggregator: agg, store: store, metrics: m}
}

// RecordExpense validates and commits an expense paid by req.Payers.
func (s *LedgerService) RecordExpense(ctx context.Context, req *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.RecordExpenseResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("RecordExpense request received",
		"user_id", caller,
		"group_id", msg.GroupID,
		"total", msg.Total.String(),
		"payers_count", len(msg.Payers),
	)

	if msg.GroupID != "" {
		// Unknown groups are reported by ledger validation.
		err := requireMember(ctx, s.store, msg.GroupID, caller)
		if err != nil && connect.CodeOf(err) != connect.CodeNotFound {
			return nil, err
		}
	}

	owers, err := buildOwers(msg)
	if err != nil {
		slog.Warn("RecordExpense share calculation failed", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	id, err := s.ledger.RecordExpense(ctx, ledger.ExpenseInput{
		Description: msg.Description,
		Total:       msg.Total,
		Payers:      msg.Payers,
		Owers:       owers,
		GroupID:     msg.GroupID,
		CreatedBy:   caller,
	})
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ValidationFailed(string(verr.Kind))
		}
		slog.Error("RecordExpense failed", "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.ExpenseRecorded()

	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("Expense saved", "expense_id", id)
	return connect.NewResponse(&api.RecordExpenseResponse{Expense: expense}), nil
}

// buildOwers turns the request's split mode into an owers map.
func buildOwers(msg *api.RecordExpenseRequest) (map[string]decimal.Decimal, error) {
	modes := 0
	for _, set := range []bool{len(msg.Owers) > 0, len(msg.EqualSplit) > 0, len(msg.Items) > 0} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return nil, errAmbiguousOwers
	}

	switch {
	case len(msg.EqualSplit) > 0:
		return calculator.EqualShares(msg.Total, msg.EqualSplit)
	case len(msg.Items) > 0:
		items := make([]calculator.Item, len(msg.Items))
		var participants []string
		for i, item := range msg.Items {
			items[i] = calculator.Item{
				Description:  item.Description,
				Amount:       item.Amount,
				Participants: item.Participants,
			}
			participants = append(participants, item.Participants...)
		}
		return calculator.ItemizedShares(items, msg.Total, msg.Subtotal, participants)
	default:
		return msg.Owers, nil
	}
}

// GetExpense returns an expense with its splits.
func (s *LedgerService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeExpense(ctx, expense, caller); err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: expense}), nil
}

// ListExpenses lists a group's expenses, or every expense the caller is part of.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	scope := models.GroupScope(req.Msg.GroupID)
	keep := func(*models.Expense) bool { return true }
	if scope.IsGlobal() {
		mine, err := s.ledger.SplitsForUser(ctx, caller, scope)
		if err != nil {
			return nil, toConnectError(err)
		}
		involved := make(map[string]bool, len(mine))
		for _, split := range mine {
			involved[split.ExpenseID] = true
		}
		keep = func(e *models.Expense) bool { return involved[e.ID] || e.CreatedBy == caller }
	} else if err := requireMember(ctx, s.store, scope.GroupID, caller); err != nil {
		return nil, err
	}

	expenses, err := s.ledger.Expenses(ctx, scope)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !keep(e) {
			continue
		}
		paidBy, owedBy, err := s.ledger.SplitsFor(ctx, e.ID)
		if err != nil {
			return nil, toConnectError(err)
		}
		out = append(out, toAPIExpense(e, paidBy, owedBy))
	}

	slog.Info("ListExpenses successful", "count", len(out))
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// GetBalance returns one user's net balance in a scope.
func (s *LedgerService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	userID := req.Msg.UserID
	if userID == "" {
		userID = caller
	}
	scope := models.GroupScope(req.Msg.GroupID)
	slog.Info("GetBalance request received", "user_id", userID, "scope", scope.String())

	if scope.IsGlobal() {
		if userID != caller {
			return nil, connect.NewError(connect.CodePermissionDenied, errOtherBalance)
		}
	} else if err := requireMember(ctx, s.store, scope.GroupID, caller); err != nil {
		return nil, err
	}

	balance, err := s.aggregator.NetBalance(ctx, userID, scope)
	if err != nil {
		slog.Error("GetBalance failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetBalanceResponse{
		UserID:  userID,
		GroupID: scope.GroupID,
		Balance: balance,
	}), nil
}

// ListBalances returns paid, owed and net totals per user in a scope.
func (s *LedgerService) ListBalances(ctx context.Context, req *connect.Request[api.ListBalancesRequest]) (*connect.Response[api.ListBalancesResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	scope := models.GroupScope(req.Msg.GroupID)
	slog.Info("ListBalances request received", "scope", scope.String())

	if !scope.IsGlobal() {
		if err := requireMember(ctx, s.store, scope.GroupID, caller); err != nil {
			return nil, err
		}
	}

	summaries, err := s.aggregator.Summaries(ctx, scope)
	if err != nil {
		slog.Error("ListBalances failed", "error", err)
		return nil, toConnectError(err)
	}

	ids := make([]string, len(summaries))
	for i, mb := range summaries {
		ids[i] = mb.UserID
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to load users: %w", err))
	}

	out := make([]*api.MemberBalance, len(summaries))
	for i, mb := range summaries {
		out[i] = &api.MemberBalance{
			UserID:     mb.UserID,
			NetBalance: mb.NetBalance,
			TotalPaid:  mb.TotalPaid,
			TotalOwed:  mb.TotalOwed,
		}
		if u, ok := users[mb.UserID]; ok {
			out[i].DisplayName = u.DisplayName
		}
	}

	return connect.NewResponse(&api.ListBalancesResponse{Balances: out}), nil
}

// Settle computes a minimal set of payments that clears every balance in scope.
// The plan is a suggestion; nothing is written to the ledger.
func (s *LedgerService) Settle(ctx context.Context, req *connect.Request[api.SettleRequest]) (*connect.Response[api.SettleResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	scope := models.GroupScope(req.Msg.GroupID)
	slog.Info("Settle request received", "scope", scope.String())

	if !scope.IsGlobal() {
		if err := requireMember(ctx, s.store, scope.GroupID, caller); err != nil {
			return nil, err
		}
	}

	balances, err := s.aggregator.AllNetBalances(ctx, scope)
	if err != nil {
		slog.Error("Settle failed", "error", err)
		return nil, toConnectError(err)
	}

	plan := calculator.Simplify(balances)
	s.metrics.SettlementComputed(len(plan))

	out := make([]*api.SettlementTransaction, len(plan))
	for i, tx := range plan {
		out[i] = &api.SettlementTransaction{
			Payer:   tx.Payer,
			Payee:   tx.Payee,
			Amount:  tx.Amount,
			Summary: tx.String(),
		}
	}

	slog.Info("Settle successful", "scope", scope.String(), "transactions", len(out))
	return connect.NewResponse(&api.SettleResponse{Transactions: out}), nil
}

func (s *LedgerService) loadExpense(ctx context.Context, id string) (*api.Expense, error) {
	expense, err := s.ledger.Expense(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	paidBy, owedBy, err := s.ledger.SplitsFor(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return toAPIExpense(expense, paidBy, owedBy), nil
}

// authorizeExpense allows group members for group expenses, and the creator
// or a participant for personal ones.
func (s *LedgerService) authorizeExpense(ctx context.Context, e *api.Expense, caller string) error {
	if e.GroupID != "" {
		return requireMember(ctx, s.store, e.GroupID, caller)
	}
	if e.CreatedBy == caller {
		return nil
	}
	isCaller := func(sp api.Split) bool { return sp.UserID == caller }
	if slices.ContainsFunc(e.PaidBy, isCaller) || slices.ContainsFunc(e.OwedBy, isCaller) {
		return nil
	}
	return connect.NewError(connect.CodePermissionDenied, errNotInvolved)
}
