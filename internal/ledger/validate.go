package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountChecker tests whether an account id exists in the chart of accounts.
type AccountChecker interface {
	AccountExists(id string) bool
}

var hundred = decimal.NewFromInt(100)

// ValidateEntry enforces the journal invariants on an entry before it is
// persisted:
//
//  1. the entry has at least one line
//  2. every line has a valid side and a non-negative amount
//  3. amounts carry at most 2 decimal places
//  4. every line references an existing account
//  5. total debits equal total credits
//
// Violations of 1-3 return ValidationError, 4 wraps ErrNotFound and 5
// returns UnbalancedEntryError.
func ValidateEntry(e JournalEntry, accounts AccountChecker) error {
	if len(e.Lines) == 0 {
		return Validationf("entry must have at least one line")
	}
	if e.Date.IsZero() {
		return Validationf("entry date is required")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, line := range e.Lines {
		switch line.Side {
		case Debit:
			totalDebit = totalDebit.Add(line.Amount)
		case Credit:
			totalCredit = totalCredit.Add(line.Amount)
		default:
			return Validationf("line %d: type must be debit or credit", i)
		}
		if line.Amount.IsNegative() {
			return Validationf("line %d: amount must be non-negative", i)
		}
		if !line.Amount.Mul(hundred).Equal(line.Amount.Mul(hundred).Floor()) {
			return Validationf("line %d: amount %s has more than 2 decimal places", i, line.Amount)
		}
		if line.AccountID == "" {
			return Validationf("line %d: account is required", i)
		}
		if !accounts.AccountExists(line.AccountID) {
			return fmt.Errorf("line %d: account %s: %w", i, line.AccountID, ErrNotFound)
		}
	}

	if !totalDebit.Equal(totalCredit) {
		return &UnbalancedEntryError{Debit: totalDebit, Credit: totalCredit}
	}
	return nil
}
