package models

// Scope selects the part of the ledger a balance is computed over.
// The zero value is the global scope.
type Scope struct {
	GroupID string
}

// GlobalScope covers every expense in the ledger.
var GlobalScope = Scope{}

// GroupScope covers only the expenses recorded against groupID.
func GroupScope(groupID string) Scope {
	return Scope{GroupID: groupID}
}

// IsGlobal reports whether the scope spans the whole ledger.
func (s Scope) IsGlobal() bool {
	return s.GroupID == ""
}

// Contains reports whether an expense with the given group ID falls in the scope.
func (s Scope) Contains(groupID string) bool {
	return s.IsGlobal() || s.GroupID == groupID
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "group:" + s.GroupID
}
