// Package service implements the Connect handlers declared in pkg/api.
package service

import (
	"context"
	"errors"
	"slices"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errNotMember    = errors.New("caller is not a member of the group")
	errNotInvolved  = errors.New("caller is not part of the expense")
	errOtherBalance = errors.New("global balances of other users are private")
)

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// requireMember fails unless userID belongs to groupID.
func requireMember(ctx context.Context, groups storage.GroupStore, groupID, userID string) error {
	members, err := groups.GroupMembers(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	if !slices.Contains(members, userID) {
		return connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return nil
}

// toConnectError maps ledger and storage errors to Connect codes.
// Validation failures carry their kind in the error metadata.
func toConnectError(err error) *connect.Error {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		cerr.Meta().Set(api.ValidationKindHeader, string(verr.Kind))
		return cerr
	}
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   members,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense, paidBy, owedBy []models.SplitRecord) *api.Expense {
	out := &api.Expense{
		ID:          e.ID,
		Description: e.Description,
		Total:       e.Total,
		GroupID:     e.GroupID,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
	for _, s := range paidBy {
		out.PaidBy = append(out.PaidBy, api.Split{UserID: s.UserID, Amount: s.Amount})
	}
	for _, s := range owedBy {
		out.OwedBy = append(out.OwedBy, api.Split{UserID: s.UserID, Amount: s.Amount})
	}
	return out
}
