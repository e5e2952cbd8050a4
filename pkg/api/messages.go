package api

import "github.com/shopspring/decimal"

// User is a registered user without credentials.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"created_by"`
	CreatedAt int64    `json:"created_at"`
}

// Split is one user's paid or owed amount on an expense.
type Split struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Total       decimal.Decimal `json:"total"`
	GroupID     string          `json:"group_id,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	PaidBy      []Split         `json:"paid_by,omitempty"`
	OwedBy      []Split         `json:"owed_by,omitempty"`
}

// Item is a line on an itemized receipt, shared equally by its participants.
type Item struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Participants []string        `json:"participants"`
}

type MemberBalance struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name,omitempty"`
	NetBalance  decimal.Decimal `json:"net_balance"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalOwed   decimal.Decimal `json:"total_owed"`
}

type SettlementTransaction struct {
	Payer  string          `json:"payer"`
	Payee  string          `json:"payee"`
	Amount decimal.Decimal `json:"amount"`
	// Summary reads "<payer> pays <amount> to <payee>".
	Summary string `json:"summary"`
}

// RecordExpenseRequest describes who paid and who owes.
// Exactly one of Owers, EqualSplit or Items must be set. Items require Subtotal;
// Total minus Subtotal (tax, tip) is spread proportionally.
type RecordExpenseRequest struct {
	Description string                     `json:"description"`
	Total       decimal.Decimal            `json:"total"`
	GroupID     string                     `json:"group_id,omitempty"`
	Payers      map[string]decimal.Decimal `json:"payers"`
	Owers       map[string]decimal.Decimal `json:"owers,omitempty"`
	EqualSplit  []string                   `json:"equal_split,omitempty"`
	Items       []Item                     `json:"items,omitempty"`
	Subtotal    decimal.Decimal            `json:"subtotal,omitzero"`
}

type RecordExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// ListExpensesRequest lists the caller's visible expenses; GroupID narrows to one group.
type ListExpensesRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// GetBalanceRequest asks for one user's net balance. UserID defaults to the caller.
type GetBalanceRequest struct {
	UserID  string `json:"user_id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

type GetBalanceResponse struct {
	UserID  string          `json:"user_id"`
	GroupID string          `json:"group_id,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

type ListBalancesRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type ListBalancesResponse struct {
	Balances []*MemberBalance `json:"balances"`
}

type SettleRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type SettleResponse struct {
	Transactions []*SettlementTransaction `json:"transactions"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddGroupMembersRequest struct {
	GroupID string   `json:"group_id"`
	Members []string `json:"members"`
}

type AddGroupMembersResponse struct {
	Group *Group `json:"group"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}
