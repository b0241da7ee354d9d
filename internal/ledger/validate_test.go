package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapChecker map[string]bool

func (m mapChecker) AccountExists(id string) bool { return m[id] }

func testDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestValidateEntryBalanced(t *testing.T) {
	accounts := mapChecker{"a1": true, "a2": true}
	e := JournalEntry{
		Date: testDate("2024-01-10"),
		Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: dec("100")},
			{AccountID: "a2", Side: Credit, Amount: dec("100")},
		},
	}
	require.NoError(t, ValidateEntry(e, accounts))
}

func TestValidateEntryUnbalanced(t *testing.T) {
	accounts := mapChecker{"a1": true, "a2": true}
	e := JournalEntry{
		Date: testDate("2024-01-10"),
		Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: dec("100")},
			{AccountID: "a2", Side: Credit, Amount: dec("90")},
		},
	}
	err := ValidateEntry(e, accounts)
	var unbalanced *UnbalancedEntryError
	require.ErrorAs(t, err, &unbalanced)
	assert.True(t, unbalanced.Debit.Equal(dec("100")))
	assert.True(t, unbalanced.Credit.Equal(dec("90")))
}

func TestValidateEntryUnknownAccount(t *testing.T) {
	accounts := mapChecker{"a1": true}
	e := JournalEntry{
		Date: testDate("2024-01-10"),
		Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: dec("50")},
			{AccountID: "ghost", Side: Credit, Amount: dec("50")},
		},
	}
	require.ErrorIs(t, ValidateEntry(e, accounts), ErrNotFound)
}

func TestValidateEntryRejectsMalformedLines(t *testing.T) {
	accounts := mapChecker{"a1": true, "a2": true}

	cases := map[string]JournalEntry{
		"no lines": {Date: testDate("2024-01-10")},
		"no date": {Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: dec("10")},
			{AccountID: "a2", Side: Credit, Amount: dec("10")},
		}},
		"bad side": {Date: testDate("2024-01-10"), Lines: []JournalLine{
			{AccountID: "a1", Side: "both", Amount: dec("10")},
		}},
		"negative amount": {Date: testDate("2024-01-10"), Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: dec("-10")},
			{AccountID: "a2", Side: Credit, Amount: dec("-10")},
		}},
		"three decimal places": {Date: testDate("2024-01-10"), Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: dec("10.005")},
			{AccountID: "a2", Side: Credit, Amount: dec("10.005")},
		}},
		"missing account": {Date: testDate("2024-01-10"), Lines: []JournalLine{
			{AccountID: "", Side: Debit, Amount: dec("10")},
			{AccountID: "a2", Side: Credit, Amount: dec("10")},
		}},
	}
	for name, e := range cases {
		var vErr *ValidationError
		require.ErrorAs(t, ValidateEntry(e, accounts), &vErr, name)
	}
}

func TestValidateEntryZeroAmountLinesBalance(t *testing.T) {
	// Zero-amount lines are legal as long as the entry still balances.
	accounts := mapChecker{"a1": true, "a2": true}
	e := JournalEntry{
		Date: testDate("2024-01-10"),
		Lines: []JournalLine{
			{AccountID: "a1", Side: Debit, Amount: decimal.Zero},
			{AccountID: "a2", Side: Credit, Amount: decimal.Zero},
		},
	}
	require.NoError(t, ValidateEntry(e, accounts))
}
