package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLedgerRunningBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Hamid", OpeningBalance: dec("1000")})
	require.NoError(t, err)
	recv, err := f.store.GetAccount(ctx, c.AccountID)
	require.NoError(t, err)

	f.entry(t, "2024-01-05", "credit sale",
		JournalLine{AccountID: recv.ID, Side: Debit, Amount: dec("500")},
		creditLine(f.sales, "500"))
	f.entry(t, "2024-01-20", "part payment",
		debitLine(f.cash, "300"),
		JournalLine{AccountID: recv.ID, Side: Credit, Amount: dec("300")})

	view, err := BuildLedger(ctx, f.store, c.ID, SubjectCustomer, DateRange{})
	require.NoError(t, err)

	assert.True(t, view.OpeningBalance.Equal(dec("1000")))
	require.Len(t, view.Rows, 2)
	assert.True(t, view.Rows[0].Balance.Equal(dec("1500")), "after debit: %s", view.Rows[0].Balance)
	assert.True(t, view.Rows[1].Balance.Equal(dec("1200")), "after credit: %s", view.Rows[1].Balance)
	assert.True(t, view.ClosingBalance.Equal(dec("1200")))
	assert.True(t, view.TotalDebit.Equal(dec("500")))
	assert.True(t, view.TotalCredit.Equal(dec("300")))
	assert.Equal(t, recv.ID, view.AccountID)
}

func TestBuildLedgerWindowedOpeningEqualsPrefixClosing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Nadia", OpeningBalance: dec("250")})
	require.NoError(t, err)
	recv := c.AccountID

	dates := []string{"2024-01-10", "2024-02-10", "2024-03-10", "2024-04-10"}
	amounts := []string{"100", "40", "75", "10"}
	for i := range dates {
		f.entry(t, dates[i], "sale",
			JournalLine{AccountID: recv, Side: Debit, Amount: dec(amounts[i])},
			creditLine(f.sales, amounts[i]))
	}

	prefix, err := BuildLedger(ctx, f.store, c.ID, SubjectCustomer,
		DateRange{End: testDate("2024-02-28")})
	require.NoError(t, err)

	window, err := BuildLedger(ctx, f.store, c.ID, SubjectCustomer,
		DateRange{Start: testDate("2024-03-01"), End: testDate("2024-04-30")})
	require.NoError(t, err)

	assert.True(t, window.OpeningBalance.Equal(prefix.ClosingBalance),
		"window opening %s should equal prefix closing %s",
		window.OpeningBalance, prefix.ClosingBalance)
	require.Len(t, window.Rows, 2)
	assert.True(t, window.ClosingBalance.Equal(dec("475")))
}

func TestBuildLedgerIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "sale", debitLine(f.cash, "80"), creditLine(f.sales, "80"))
	f.entry(t, "2024-01-06", "rent", debitLine(f.rent, "30"), creditLine(f.cash, "30"))

	w := DateRange{Start: testDate("2024-01-01"), End: testDate("2024-01-31")}
	first, err := BuildLedger(ctx, f.store, f.cash.ID, SubjectAccount, w)
	require.NoError(t, err)
	second, err := BuildLedger(ctx, f.store, f.cash.ID, SubjectAccount, w)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildLedgerInvertedWindow(t *testing.T) {
	f := newFixture(t)
	_, err := BuildLedger(context.Background(), f.store, f.cash.ID, SubjectAccount,
		DateRange{Start: testDate("2024-02-01"), End: testDate("2024-01-01")})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestBuildLedgerUnknownSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := BuildLedger(ctx, f.store, "missing", SubjectCustomer, DateRange{})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = BuildLedger(ctx, f.store, "missing", SubjectAccount, DateRange{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBuildLedgerInclusiveDayBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Entry timestamped midday on the window's end date must be included.
	e, err := f.store.CreateEntry(ctx, JournalEntry{
		Date:  testDate("2024-03-31").Add(14 * time.Hour),
		Lines: []JournalLine{debitLine(f.cash, "10"), creditLine(f.sales, "10")},
	})
	require.NoError(t, err)

	view, err := BuildLedger(ctx, f.store, f.cash.ID, SubjectAccount,
		DateRange{Start: testDate("2024-03-01"), End: testDate("2024-03-31")})
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, e.ID, view.Rows[0].EntryID)
}

func TestSupplierLedgerCreditNormal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup, err := f.store.CreateSupplier(ctx, Supplier{Name: "Mills Co", OpeningBalance: dec("0")})
	require.NoError(t, err)
	payable := sup.AccountID

	// A purchase credits the payable; a payment debits it.
	f.entry(t, "2024-02-01", "purchase",
		debitLine(f.rent, "400"),
		JournalLine{AccountID: payable, Side: Credit, Amount: dec("400")})
	f.entry(t, "2024-02-15", "bill paid",
		JournalLine{AccountID: payable, Side: Debit, Amount: dec("150")},
		creditLine(f.cash, "150"))

	view, err := BuildLedger(ctx, f.store, sup.ID, SubjectSupplier, DateRange{})
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.True(t, view.Rows[0].Balance.Equal(dec("400")))
	assert.True(t, view.ClosingBalance.Equal(dec("250")))
}

func TestSupplierLedgerSourceKindFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup, err := f.store.CreateSupplier(ctx, Supplier{Name: "Filtered Co"})
	require.NoError(t, err)
	payable := sup.AccountID

	_, err = f.store.CreateEntry(ctx, JournalEntry{
		Date:   testDate("2024-03-01"),
		Source: &SourceRef{Kind: SourcePurchaseInvoice, ID: "pi-1"},
		Lines: []JournalLine{
			debitLine(f.rent, "200"),
			{AccountID: payable, Side: Credit, Amount: dec("200")},
		},
	})
	require.NoError(t, err)
	// Manual adjustment that the filtered view must exclude.
	f.entry(t, "2024-03-05", "manual adjustment",
		JournalLine{AccountID: payable, Side: Debit, Amount: dec("20")},
		creditLine(f.sales, "20"))
	_, err = f.store.CreateEntry(ctx, JournalEntry{
		Date:   testDate("2024-03-10"),
		Source: &SourceRef{Kind: SourcePayBill, ID: "pb-1"},
		Lines: []JournalLine{
			{AccountID: payable, Side: Debit, Amount: dec("50")},
			creditLine(f.cash, "50"),
		},
	})
	require.NoError(t, err)

	view, err := BuildLedger(ctx, f.store, sup.ID, SubjectSupplier, DateRange{},
		WithSourceKinds(SourcePurchaseInvoice, SourcePayBill, SourceOpening))
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)

	// The manual adjustment emits no row and stays out of the totals, but
	// it still moves the running balance: 200 credit, minus 20, minus 50.
	assert.True(t, view.TotalDebit.Equal(dec("50")))
	assert.True(t, view.TotalCredit.Equal(dec("200")))
	assert.True(t, view.Rows[0].Balance.Equal(dec("200")))
	assert.True(t, view.Rows[1].Balance.Equal(dec("130")))
	assert.True(t, view.ClosingBalance.Equal(dec("130")))

	unfiltered, err := BuildLedger(ctx, f.store, sup.ID, SubjectSupplier, DateRange{})
	require.NoError(t, err)
	assert.True(t, view.ClosingBalance.Equal(unfiltered.ClosingBalance))
}

func TestSupplierLedgerFilterKeepsWindowedOpening(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup, err := f.store.CreateSupplier(ctx, Supplier{Name: "Anchor Co"})
	require.NoError(t, err)
	payable := sup.AccountID

	// Manual credit before the window: never emitted under the filter, yet
	// it must survive into the opening balance.
	f.entry(t, "2024-01-15", "carried balance",
		debitLine(f.rent, "100"),
		JournalLine{AccountID: payable, Side: Credit, Amount: dec("100")})
	_, err = f.store.CreateEntry(ctx, JournalEntry{
		Date:   testDate("2024-02-10"),
		Source: &SourceRef{Kind: SourcePurchaseInvoice, ID: "pi-9"},
		Lines: []JournalLine{
			debitLine(f.rent, "40"),
			{AccountID: payable, Side: Credit, Amount: dec("40")},
		},
	})
	require.NoError(t, err)

	view, err := BuildLedger(ctx, f.store, sup.ID, SubjectSupplier,
		DateRange{Start: testDate("2024-02-01")},
		WithSourceKinds(SourcePurchaseInvoice, SourcePayBill, SourceOpening))
	require.NoError(t, err)
	assert.True(t, view.OpeningBalance.Equal(dec("100")))
	require.Len(t, view.Rows, 1)
	assert.True(t, view.Rows[0].Balance.Equal(dec("140")))
	assert.True(t, view.ClosingBalance.Equal(dec("140")))
}

func TestSummarizeCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "cash sale", debitLine(f.cash, "100"), creditLine(f.sales, "100"))
	f.entry(t, "2024-01-06", "deposit", debitLine(f.bank, "60"), creditLine(f.cash, "60"))

	cash, err := SummarizeCategory(ctx, f.store, CategoryCash)
	require.NoError(t, err)
	require.Len(t, cash.Accounts, 1)
	assert.True(t, cash.Total.Equal(dec("40")))

	bank, err := SummarizeCategory(ctx, f.store, CategoryBank)
	require.NoError(t, err)
	assert.True(t, bank.Total.Equal(dec("60")))

	_, err = SummarizeCategory(ctx, f.store, "petty")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
