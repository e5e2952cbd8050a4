package calculator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

var (
	ErrNoParticipants  = errors.New("must have at least one participant")
	ErrZeroSubtotal    = errors.New("subtotal cannot be zero")
	ErrNonPositive     = errors.New("total must be greater than zero")
	ErrItemsMismatch   = errors.New("items do not add up to subtotal")
	ErrUnknownAssignee = errors.New("item assigned to a non-participant")
)

// Item is a single line on a bill, split equally among its participants.
type Item struct {
	Description  string
	Amount       decimal.Decimal
	Participants []string
}

// EqualShares splits total into per-participant owed amounts.
// Shares are whole cents; leftover cents go one each to participants in
// ascending ID order, so the shares always add up to total exactly.
func EqualShares(total decimal.Decimal, participants []string) (map[string]decimal.Decimal, error) {
	ids := uniqueSorted(participants)
	if len(ids) == 0 {
		return nil, ErrNoParticipants
	}
	if !total.IsPositive() {
		return nil, ErrNonPositive
	}

	base := total.Div(decimal.NewFromInt(int64(len(ids)))).Truncate(money.Places)
	shares := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		shares[id] = base
	}
	distributeRemainder(shares, total, ids)
	return shares, nil
}

// ItemizedShares computes how much each participant owes for an itemized bill,
// including a proportional share of tax and fees:
//
//	person_total = person_subtotal × (total / subtotal)
//
// With no items the total is split equally. Participants left with nothing
// assigned are omitted from the result.
func ItemizedShares(items []Item, total, subtotal decimal.Decimal, participants []string) (map[string]decimal.Decimal, error) {
	if subtotal.IsZero() {
		return nil, ErrZeroSubtotal
	}
	ids := uniqueSorted(participants)
	if len(ids) == 0 {
		return nil, ErrNoParticipants
	}
	if !total.IsPositive() {
		return nil, ErrNonPositive
	}
	if len(items) == 0 {
		return EqualShares(total, ids)
	}

	itemSum := decimal.Zero
	subtotals := make(map[string]decimal.Decimal, len(ids))
	for _, item := range items {
		itemSum = itemSum.Add(item.Amount)
		if len(item.Participants) == 0 {
			continue
		}
		perPerson := item.Amount.Div(decimal.NewFromInt(int64(len(item.Participants))))
		for _, p := range item.Participants {
			if !slices.Contains(ids, p) {
				return nil, fmt.Errorf("%w: %q on %q", ErrUnknownAssignee, p, item.Description)
			}
			subtotals[p] = subtotals[p].Add(perPerson)
		}
	}
	if !money.Within(itemSum, subtotal) {
		return nil, fmt.Errorf("%w: items %s, subtotal %s", ErrItemsMismatch, itemSum, subtotal)
	}

	factor := total.Div(subtotal)
	shares := make(map[string]decimal.Decimal, len(subtotals))
	var owing []string
	for _, id := range ids {
		sub, ok := subtotals[id]
		if !ok || !sub.IsPositive() {
			continue
		}
		shares[id] = sub.Mul(factor).Round(money.Places)
		owing = append(owing, id)
	}
	if len(owing) == 0 {
		return nil, ErrNoParticipants
	}
	distributeRemainder(shares, total, owing)
	return shares, nil
}

// distributeRemainder hands the difference between total and the sum of
// shares out one cent at a time in the given order. A sub-cent tail goes to
// the first participant.
func distributeRemainder(shares map[string]decimal.Decimal, total decimal.Decimal, order []string) {
	residual := total.Sub(money.Sum(shares))
	step := money.Cent
	if residual.IsNegative() {
		step = step.Neg()
	}
	for i := 0; residual.Abs().GreaterThanOrEqual(money.Cent); i++ {
		id := order[i%len(order)]
		shares[id] = shares[id].Add(step)
		residual = residual.Sub(step)
	}
	if !residual.IsZero() {
		shares[order[0]] = shares[order[0]].Add(residual)
	}
}

func uniqueSorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
