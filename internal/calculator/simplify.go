package calculator

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// ErrUnbalanced means a balance map handed to Simplify does not sum to zero.
// It only happens when the ledger or the aggregator is broken.
var ErrUnbalanced = errors.New("balances do not sum to zero")

// ImbalanceError is the panic value raised by Simplify for a non-zero-sum input.
type ImbalanceError struct {
	Sum decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("%v: off by %s", ErrUnbalanced, e.Sum.String())
}

func (e *ImbalanceError) Unwrap() error {
	return ErrUnbalanced
}

// position is one user's outstanding magnitude on either side of the ledger.
type position struct {
	userID string
	amount decimal.Decimal
}

// positionHeap is a max-heap by amount. Equal amounts pop in ascending user ID
// order so plans are reproducible.
type positionHeap []position

func (h positionHeap) Len() int { return len(h) }

func (h positionHeap) Less(i, j int) bool {
	if c := h[i].amount.Cmp(h[j].amount); c != 0 {
		return c > 0
	}
	return h[i].userID < h[j].userID
}

func (h positionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *positionHeap) Push(x any) { *h = append(*h, x.(position)) }

func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// Simplify turns net balances into a short list of payments that zeroes them.
//
// Algorithm (greedy, two max-heaps):
//   - users within Epsilon of zero are already settled and ignored
//   - repeatedly match the largest creditor with the largest debtor
//   - the smaller side is paid off in full, the larger side's remainder goes
//     back on its heap if it is still above Epsilon
//
// Each payment closes out at least one user, so at most n-1 payments are
// emitted for n unsettled users. Transactions are returned in emission order.
//
// The balances must sum to zero within Epsilon. Anything else is an internal
// consistency fault and Simplify panics with *ImbalanceError.
func Simplify(balances map[string]decimal.Decimal) []models.SettlementTransaction {
	if sum := money.Sum(balances); !money.IsZero(sum) {
		panic(&ImbalanceError{Sum: sum})
	}

	creditors := &positionHeap{}
	debtors := &positionHeap{}
	for userID, balance := range balances {
		switch {
		case balance.GreaterThan(money.Epsilon):
			*creditors = append(*creditors, position{userID: userID, amount: balance})
		case balance.LessThan(money.Epsilon.Neg()):
			*debtors = append(*debtors, position{userID: userID, amount: balance.Neg()})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	txs := make([]models.SettlementTransaction, 0, max(creditors.Len()+debtors.Len()-1, 0))
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(creditors).(position)
		d := heap.Pop(debtors).(position)

		amount := decimal.Min(c.amount, d.amount)
		txs = append(txs, models.SettlementTransaction{
			Payer:  d.userID,
			Payee:  c.userID,
			Amount: amount,
		})

		if rest := c.amount.Sub(amount); rest.GreaterThan(money.Epsilon) {
			heap.Push(creditors, position{userID: c.userID, amount: rest})
		}
		if rest := d.amount.Sub(amount); rest.GreaterThan(money.Epsilon) {
			heap.Push(debtors, position{userID: d.userID, amount: rest})
		}
	}

	return txs
}
