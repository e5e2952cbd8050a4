package models

import "slices"

// Group is a named set of users that share expenses.
// Expenses recorded against a group only count toward that group's balances
// (and the global balance).
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Goa Trip", "Roommates").
	Name string

	// Members is the list of user IDs in this group.
	Members []string

	// CreatedBy is the user ID that created the group.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}
