package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/storage"
)

// Kind classifies why an expense was rejected.
type Kind string

const (
	KindEmptySplit        Kind = "EMPTY_SPLIT"
	KindUnknownGroup      Kind = "UNKNOWN_GROUP"
	KindUnknownUser       Kind = "UNKNOWN_USER"
	KindNotGroupMember    Kind = "NOT_GROUP_MEMBER"
	KindNonPositiveAmount Kind = "NON_POSITIVE_AMOUNT"
	KindAmountMismatch    Kind = "AMOUNT_MISMATCH"
)

// Sentinels matched by errors.Is against a *ValidationError.
var (
	ErrEmptySplit        = errors.New("payers and owers must both be non-empty")
	ErrUnknownGroup      = errors.New("unknown group")
	ErrUnknownUser       = errors.New("unknown user")
	ErrNotGroupMember    = errors.New("user is not a member of the group")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrAmountMismatch    = errors.New("split amounts do not add up to the total")
)

// ErrNotFound is returned for unknown expenses.
var ErrNotFound = storage.ErrNotFound

var sentinels = map[Kind]error{
	KindEmptySplit:        ErrEmptySplit,
	KindUnknownGroup:      ErrUnknownGroup,
	KindUnknownUser:       ErrUnknownUser,
	KindNotGroupMember:    ErrNotGroupMember,
	KindNonPositiveAmount: ErrNonPositiveAmount,
	KindAmountMismatch:    ErrAmountMismatch,
}

// ValidationError reports the first invariant an expense violated.
// Nothing is written to the ledger when it is returned.
type ValidationError struct {
	Kind Kind
	// UserID is the offending user, empty when the failure is not user specific.
	UserID string
	Detail string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid expense: %s", e.Unwrap())
	if e.UserID != "" {
		msg += fmt.Sprintf(" (user %s)", e.UserID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel for the error's kind.
func (e *ValidationError) Unwrap() error {
	if err, ok := sentinels[e.Kind]; ok {
		return err
	}
	return errors.New(string(e.Kind))
}

func invalid(kind Kind, userID, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, UserID: userID, Detail: fmt.Sprintf(format, args...)}
}
