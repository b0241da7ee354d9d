package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrialBalanceTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "sale", debitLine(f.cash, "100"), creditLine(f.sales, "100"))
	f.entry(t, "2024-01-10", "rent", debitLine(f.rent, "40"), creditLine(f.cash, "40"))

	tb, err := ComputeTrialBalance(ctx, f.store, DateRange{})
	require.NoError(t, err)

	assert.True(t, tb.TotalDebit.Equal(dec("140")))
	assert.True(t, tb.TotalCredit.Equal(dec("140")))
	assert.True(t, tb.IsBalanced)

	// Only accounts with activity appear, sorted by code.
	require.Len(t, tb.Rows, 3)
	assert.Equal(t, []string{"1000", "4000", "5000"},
		[]string{tb.Rows[0].Code, tb.Rows[1].Code, tb.Rows[2].Code})

	cash := tb.Rows[0]
	assert.True(t, cash.Debit.Equal(dec("100")))
	assert.True(t, cash.Credit.Equal(dec("40")))
}

func TestTrialBalanceWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "january", debitLine(f.cash, "100"), creditLine(f.sales, "100"))
	f.entry(t, "2024-02-05", "february", debitLine(f.cash, "200"), creditLine(f.sales, "200"))

	tb, err := ComputeTrialBalance(ctx, f.store, DateRange{
		Start: testDate("2024-02-01"), End: testDate("2024-02-28"),
	})
	require.NoError(t, err)
	assert.True(t, tb.TotalDebit.Equal(dec("200")))
	assert.True(t, tb.IsBalanced)

	_, err = ComputeTrialBalance(ctx, f.store, DateRange{
		Start: testDate("2024-03-01"), End: testDate("2024-02-01"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestTrialBalanceEmpty(t *testing.T) {
	f := newFixture(t)
	tb, err := ComputeTrialBalance(context.Background(), f.store, DateRange{})
	require.NoError(t, err)
	assert.Empty(t, tb.Rows)
	assert.True(t, tb.IsBalanced, "no activity is trivially balanced")
}

func TestTrialBalanceMatchesLedgerSums(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "sale", debitLine(f.cash, "55.25"), creditLine(f.sales, "55.25"))
	f.entry(t, "2024-01-06", "rent", debitLine(f.rent, "12.75"), creditLine(f.cash, "12.75"))
	f.entry(t, "2024-01-07", "sale", debitLine(f.cash, "8.00"), creditLine(f.sales, "8.00"))

	tb, err := ComputeTrialBalance(ctx, f.store, DateRange{})
	require.NoError(t, err)

	for _, row := range tb.Rows {
		view, err := BuildLedger(ctx, f.store, row.AccountID, SubjectAccount, DateRange{})
		require.NoError(t, err)
		assert.True(t, row.Debit.Equal(view.TotalDebit), "%s debit", row.Code)
		assert.True(t, row.Credit.Equal(view.TotalCredit), "%s credit", row.Code)
	}
}

func TestIncomeStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "sale", debitLine(f.cash, "300"), creditLine(f.sales, "300"))
	f.entry(t, "2024-01-10", "refund", JournalLine{AccountID: f.sales.ID, Side: Debit, Amount: dec("20")}, creditLine(f.cash, "20"))
	f.entry(t, "2024-01-12", "rent", debitLine(f.rent, "100"), creditLine(f.cash, "100"))

	is, err := ComputeIncomeStatement(ctx, f.store, DateRange{})
	require.NoError(t, err)

	require.Len(t, is.Revenue, 1)
	assert.True(t, is.Revenue[0].NetAmount.Equal(dec("280")), "income nets credit minus debit")
	require.Len(t, is.Expenses, 1)
	assert.True(t, is.Expenses[0].NetAmount.Equal(dec("100")))
	assert.True(t, is.TotalRevenue.Equal(dec("280")))
	assert.True(t, is.TotalExpense.Equal(dec("100")))
	assert.True(t, is.NetProfit.Equal(dec("180")))
}
