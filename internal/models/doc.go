// Package models defines the core domain models for the splitledger service.
//
// # Ledger Models
//
// The ledger is built from two records:
//   - Expense: one shared cost event with a total amount and optional group scope
//   - SplitRecord: one user's paid or owed share of a single expense
//
// Balances and settlement plans are derived from split records and are never
// stored:
//   - Scope: the slice of the ledger a balance is computed over (global or one group)
//   - SettlementTransaction: a suggested payment from a debtor to a creditor
//
// # Collaborator Models
//
//   - User: registered account; the ledger only checks that an ID exists
//   - Group: named set of user IDs that scopes expenses and balances
//
// # Design Principles
//
// 1. **Money is decimal**: all amounts are shopspring decimals, never float64
// 2. **IDs over pointers**: relationships are expressed as ID strings
// 3. **Immutable records**: expenses and splits are written once and never updated
package models
