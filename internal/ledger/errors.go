package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound reports an unknown account, entry, party, product or document id.
var ErrNotFound = errors.New("not found")

// UnbalancedEntryError rejects a journal entry whose debit total does not
// equal its credit total. The entry is never persisted.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry does not balance: debits (%s) != credits (%s)",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// DuplicateAccountCodeError rejects an account create/update that reuses an
// existing code.
type DuplicateAccountCodeError struct {
	Code string
}

func (e *DuplicateAccountCodeError) Error() string {
	return fmt.Sprintf("account code %q already exists", e.Code)
}

// AccountInUseError rejects deletion of an account still referenced by
// journal lines or linked parties.
type AccountInUseError struct {
	AccountID string
}

func (e *AccountInUseError) Error() string {
	return fmt.Sprintf("account %s is referenced by journal lines or parties", e.AccountID)
}

// ReferenceMismatchError rejects deletion of a document-owned journal entry
// without the matching source reference.
type ReferenceMismatchError struct {
	EntryID string
}

func (e *ReferenceMismatchError) Error() string {
	return fmt.Sprintf("entry %s belongs to a source document; deletion requires the matching reference", e.EntryID)
}

// ValidationError reports malformed input: bad enums, negative amounts,
// inverted date ranges, missing fields.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
