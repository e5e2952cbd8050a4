package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SettlementTransaction is a suggested payment that reduces outstanding balances.
// It is computed on demand and never persisted.
type SettlementTransaction struct {
	// Payer is the debtor's user ID.
	Payer string

	// Payee is the creditor's user ID.
	Payee string

	// Amount is how much the payer sends.
	Amount decimal.Decimal
}

// String renders the transaction as "<payer> pays <amount> to <payee>".
func (t SettlementTransaction) String() string {
	return fmt.Sprintf("%s pays %s to %s", t.Payer, t.Amount.StringFixed(2), t.Payee)
}
