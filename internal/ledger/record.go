package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// ExpenseInput describes an expense to record.
// Payers maps user ID to the amount they paid, Owers to the share they owe.
type ExpenseInput struct {
	Description string
	Total       decimal.Decimal
	Payers      map[string]decimal.Decimal
	Owers       map[string]decimal.Decimal
	GroupID     string
	CreatedBy   string
}

// RecordExpense validates in and commits it with its split records.
// A *ValidationError is returned for the first violated invariant, in which
// case the ledger is unchanged.
func (l *Ledger) RecordExpense(ctx context.Context, in ExpenseInput) (string, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RecordExpense")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.group_id", in.GroupID),
		attribute.Int("ledger.payers", len(in.Payers)),
		attribute.Int("ledger.owers", len(in.Owers)),
	)

	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.record(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("ledger.expense_id", id))
	return id, nil
}

func (l *Ledger) record(ctx context.Context, in ExpenseInput) (string, error) {
	if err := l.validate(ctx, in); err != nil {
		return "", err
	}

	payers, err := reconcile(in.Total, in.Payers, "payers")
	if err != nil {
		return "", err
	}
	owers, err := reconcile(in.Total, in.Owers, "owers")
	if err != nil {
		return "", err
	}

	expense := &models.Expense{
		Description: in.Description,
		Total:       in.Total,
		GroupID:     in.GroupID,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   l.now().Unix(),
	}
	splits := make([]models.SplitRecord, 0, len(payers)+len(owers))
	for _, id := range slices.Sorted(maps.Keys(payers)) {
		splits = append(splits, models.SplitRecord{UserID: id, Role: models.RolePaid, Amount: payers[id]})
	}
	for _, id := range slices.Sorted(maps.Keys(owers)) {
		splits = append(splits, models.SplitRecord{UserID: id, Role: models.RoleOwed, Amount: owers[id]})
	}

	if err := l.store.CreateExpense(ctx, expense, splits); err != nil {
		return "", fmt.Errorf("RecordExpense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"total", money.Format(expense.Total),
		"splits", len(splits),
	)

	if l.invalidator != nil {
		scopes := []models.Scope{models.GlobalScope}
		if expense.GroupID != "" {
			scopes = append(scopes, models.GroupScope(expense.GroupID))
		}
		if err := l.invalidator.Invalidate(ctx, scopes...); err != nil {
			slog.ErrorContext(ctx, "Balance cache invalidation failed", "expense_id", expense.ID, "error", err)
		}
	}

	return expense.ID, nil
}

// validate checks the invariants in a fixed order so the reported kind is
// deterministic.
func (l *Ledger) validate(ctx context.Context, in ExpenseInput) error {
	if len(in.Payers) == 0 || len(in.Owers) == 0 {
		return invalid(KindEmptySplit, "", "got %d payers and %d owers", len(in.Payers), len(in.Owers))
	}

	var members []string
	if in.GroupID != "" {
		var err error
		members, err = l.dir.GroupMembers(ctx, in.GroupID)
		if errors.Is(err, storage.ErrNotFound) {
			return invalid(KindUnknownGroup, "", "group %s does not exist", in.GroupID)
		}
		if err != nil {
			return fmt.Errorf("RecordExpense: failed to load group members: %w", err)
		}
	}

	participants := participantIDs(in)
	for _, id := range participants {
		ok, err := l.dir.UserExists(ctx, id)
		if err != nil {
			return fmt.Errorf("RecordExpense: failed to check user %s: %w", id, err)
		}
		if !ok {
			return invalid(KindUnknownUser, id, "user does not exist")
		}
	}

	if in.GroupID != "" {
		for _, id := range participants {
			if !slices.Contains(members, id) {
				return invalid(KindNotGroupMember, id, "not a member of group %s", in.GroupID)
			}
		}
	}

	if !in.Total.IsPositive() {
		return invalid(KindNonPositiveAmount, "", "total is %s", in.Total)
	}
	for _, side := range []map[string]decimal.Decimal{in.Payers, in.Owers} {
		for _, id := range slices.Sorted(maps.Keys(side)) {
			if !side[id].IsPositive() {
				return invalid(KindNonPositiveAmount, id, "amount is %s", side[id])
			}
		}
	}

	if sum := money.Sum(in.Payers); !money.Within(sum, in.Total) {
		return invalid(KindAmountMismatch, "", "payers sum to %s, total is %s", sum, in.Total)
	}
	if sum := money.Sum(in.Owers); !money.Within(sum, in.Total) {
		return invalid(KindAmountMismatch, "", "owers sum to %s, total is %s", sum, in.Total)
	}
	return nil
}

// reconcile folds the sub-epsilon residual total - sum(side) into the
// largest record (ties by ascending user ID) so the side sums to the total
// exactly. It returns a copy; side is not modified.
func reconcile(total decimal.Decimal, side map[string]decimal.Decimal, name string) (map[string]decimal.Decimal, error) {
	out := maps.Clone(side)
	residual := total.Sub(money.Sum(side))
	if residual.IsZero() {
		return out, nil
	}

	var largest string
	for _, id := range slices.Sorted(maps.Keys(side)) {
		if largest == "" || side[id].GreaterThan(side[largest]) {
			largest = id
		}
	}

	adjusted := side[largest].Add(residual)
	if !adjusted.IsPositive() {
		return nil, invalid(KindAmountMismatch, largest, "%s residual %s cannot be absorbed", name, residual)
	}
	out[largest] = adjusted
	return out, nil
}

// participantIDs returns every payer and ower ID, sorted and deduplicated.
func participantIDs(in ExpenseInput) []string {
	ids := slices.Collect(maps.Keys(in.Payers))
	for id := range in.Owers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
