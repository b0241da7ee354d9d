package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a store with a minimal chart of accounts.
type fixture struct {
	store *InMemory
	cash  Account
	bank  Account
	sales Account
	rent  Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := NewInMemory()

	mk := func(name, code string, at AccountType, cat AccountCategory) Account {
		acc, err := s.CreateAccount(ctx, Account{Name: name, Code: code, Type: at, Category: cat})
		require.NoError(t, err)
		return acc
	}
	return &fixture{
		store: s,
		cash:  mk("Cash in Hand", "1000", TypeAsset, CategoryCash),
		bank:  mk("Bank", "1010", TypeAsset, CategoryBank),
		sales: mk("Sales", "4000", TypeIncome, CategoryOther),
		rent:  mk("Rent Expense", "5000", TypeExpense, CategoryOther),
	}
}

func (f *fixture) entry(t *testing.T, date string, desc string, lines ...JournalLine) JournalEntry {
	t.Helper()
	e, err := f.store.CreateEntry(context.Background(), JournalEntry{
		Date:        testDate(date),
		Description: desc,
		Lines:       lines,
	})
	require.NoError(t, err)
	return e
}

func debitLine(acc Account, amount string) JournalLine {
	return JournalLine{AccountID: acc.ID, Side: Debit, Amount: dec(amount)}
}

func creditLine(acc Account, amount string) JournalLine {
	return JournalLine{AccountID: acc.ID, Side: Credit, Amount: dec(amount)}
}

func TestAccountCodeUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateAccount(ctx, Account{Name: "Other Cash", Code: "1000", Type: TypeAsset, Category: CategoryCash})
	var dup *DuplicateAccountCodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "1000", dup.Code)

	// Updating to a taken code fails too; keeping its own code is fine.
	_, err = f.store.UpdateAccount(ctx, f.bank.ID, Account{Name: "Bank", Code: "1000", Type: TypeAsset, Category: CategoryBank})
	require.ErrorAs(t, err, &dup)
	_, err = f.store.UpdateAccount(ctx, f.bank.ID, Account{Name: "Bank Renamed", Code: "1010", Type: TypeAsset, Category: CategoryBank})
	require.NoError(t, err)
}

func TestAccountEnumValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var vErr *ValidationError

	_, err := f.store.CreateAccount(ctx, Account{Name: "X", Code: "9999", Type: "Weird", Category: CategoryCash})
	require.ErrorAs(t, err, &vErr)
	_, err = f.store.CreateAccount(ctx, Account{Name: "X", Code: "9999", Type: TypeAsset, Category: "weird"})
	require.ErrorAs(t, err, &vErr)
}

func TestDeleteAccountReferentialIntegrity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entry(t, "2024-01-05", "cash sale",
		debitLine(f.cash, "100"), creditLine(f.sales, "100"))

	err := f.store.DeleteAccount(ctx, f.cash.ID)
	var inUse *AccountInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, f.cash.ID, inUse.AccountID)

	// Unreferenced accounts delete cleanly.
	require.NoError(t, f.store.DeleteAccount(ctx, f.bank.ID))
	_, err = f.store.GetAccount(ctx, f.bank.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAccountLinkedToParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Ali Traders"})
	require.NoError(t, err)
	require.NotEmpty(t, c.AccountID, "customer should get a linked account")

	err = f.store.DeleteAccount(ctx, c.AccountID)
	var inUse *AccountInUseError
	require.ErrorAs(t, err, &inUse)
}

func TestCreateEntryRejectsUnbalancedAndStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateEntry(ctx, JournalEntry{
		Date: testDate("2024-02-01"),
		Lines: []JournalLine{
			debitLine(f.cash, "100"),
			creditLine(f.sales, "90"),
		},
	})
	var unbalanced *UnbalancedEntryError
	require.ErrorAs(t, err, &unbalanced)

	entries, err := f.store.QueryEntries(ctx, EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected entry must not appear in queries")
}

func TestQueryEntriesOrderingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Inserted out of date order; same-date entries keep insertion order.
	e3 := f.entry(t, "2024-03-10", "march sale", debitLine(f.cash, "30"), creditLine(f.sales, "30"))
	e1 := f.entry(t, "2024-01-10", "january sale", debitLine(f.cash, "10"), creditLine(f.sales, "10"))
	e2a := f.entry(t, "2024-02-10", "february rent", debitLine(f.rent, "20"), creditLine(f.cash, "20"))
	e2b := f.entry(t, "2024-02-10", "february sale", debitLine(f.cash, "25"), creditLine(f.sales, "25"))

	all, err := f.store.QueryEntries(ctx, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{e1.ID, e2a.ID, e2b.ID, e3.ID},
		[]string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	// Account filter.
	rentOnly, err := f.store.QueryEntries(ctx, EntryFilter{AccountID: f.rent.ID})
	require.NoError(t, err)
	require.Len(t, rentOnly, 1)
	assert.Equal(t, e2a.ID, rentOnly[0].ID)

	// Inclusive date range.
	feb, err := f.store.QueryEntries(ctx, EntryFilter{
		Range: DateRange{Start: testDate("2024-02-10"), End: testDate("2024-02-10")},
	})
	require.NoError(t, err)
	require.Len(t, feb, 2)

	// Free-text search on description.
	found, err := f.store.QueryEntries(ctx, EntryFilter{Search: "MARCH"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, e3.ID, found[0].ID)

	// Inverted range is rejected, not swapped.
	_, err = f.store.QueryEntries(ctx, EntryFilter{
		Range: DateRange{Start: testDate("2024-03-01"), End: testDate("2024-01-01")},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestDeleteEntrySourceReferenceGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := SourceRef{Kind: SourceInvoice, ID: "inv-1"}
	e, err := f.store.CreateEntry(ctx, JournalEntry{
		Date:   testDate("2024-04-01"),
		Source: &ref,
		Lines: []JournalLine{
			debitLine(f.cash, "40"),
			creditLine(f.sales, "40"),
		},
	})
	require.NoError(t, err)

	var mismatch *ReferenceMismatchError
	require.ErrorAs(t, f.store.DeleteEntry(ctx, e.ID, nil), &mismatch)
	require.ErrorAs(t, f.store.DeleteEntry(ctx, e.ID, &SourceRef{Kind: SourceInvoice, ID: "other"}), &mismatch)
	require.ErrorAs(t, f.store.DeleteEntry(ctx, e.ID, &SourceRef{Kind: SourceExpense, ID: "inv-1"}), &mismatch)

	require.NoError(t, f.store.DeleteEntry(ctx, e.ID, &ref))
	require.ErrorIs(t, f.store.DeleteEntry(ctx, e.ID, &ref), ErrNotFound)
}

func TestUpdateEntryKeepsIdentityAndSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := SourceRef{Kind: SourceExpense, ID: "exp-9"}
	e, err := f.store.CreateEntry(ctx, JournalEntry{
		Date:   testDate("2024-05-01"),
		Source: &ref,
		Lines:  []JournalLine{debitLine(f.rent, "70"), creditLine(f.cash, "70")},
	})
	require.NoError(t, err)

	updated, err := f.store.UpdateEntry(ctx, e.ID, JournalEntry{
		Date:        testDate("2024-05-02"),
		Description: "corrected rent",
		Lines:       []JournalLine{debitLine(f.rent, "75"), creditLine(f.cash, "75")},
	})
	require.NoError(t, err)
	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, e.Seq, updated.Seq)
	require.NotNil(t, updated.Source)
	assert.Equal(t, ref, *updated.Source)
	assert.Equal(t, "corrected rent", updated.Description)
}

func TestPartyAutoAccountsAndLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Bilal & Sons", OpeningBalance: dec("1500")})
	require.NoError(t, err)
	acc, err := f.store.GetAccount(ctx, c.AccountID)
	require.NoError(t, err)
	assert.Equal(t, TypeAsset, acc.Type)

	s, err := f.store.CreateSupplier(ctx, Supplier{Name: "Karachi Wholesale"})
	require.NoError(t, err)
	sacc, err := f.store.GetAccount(ctx, s.AccountID)
	require.NoError(t, err)
	assert.Equal(t, TypeLiability, sacc.Type)

	// Explicit account links must exist.
	_, err = f.store.CreateCustomer(ctx, Customer{Name: "Ghost", AccountID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInvoiceBillNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Walk-in"})
	require.NoError(t, err)

	last, err := f.store.LastBillNo(ctx, InvoiceSale)
	require.NoError(t, err)
	assert.Zero(t, last)

	inv1, err := f.store.CreateInvoice(ctx, Invoice{
		Kind: InvoiceSale, CustomerID: c.ID, Date: testDate("2024-06-01"), Total: dec("100"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inv1.BillNo)

	inv2, err := f.store.CreateInvoice(ctx, Invoice{
		Kind: InvoiceSale, CustomerID: c.ID, Date: testDate("2024-06-02"), Total: dec("200"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inv2.BillNo)

	// Explicit duplicates rejected.
	_, err = f.store.CreateInvoice(ctx, Invoice{
		Kind: InvoiceSale, CustomerID: c.ID, BillNo: 2, Date: testDate("2024-06-03"), Total: dec("1"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	got, err := f.store.GetInvoiceByBillNo(ctx, InvoiceSale, 2)
	require.NoError(t, err)
	assert.Equal(t, inv2.ID, got.ID)
}

func TestInvoiceTotalsFromItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Retail"})
	require.NoError(t, err)
	p, err := f.store.CreateProduct(ctx, Product{Name: "Widget", UnitCost: dec("5"), SalePrice: dec("8")})
	require.NoError(t, err)

	inv, err := f.store.CreateInvoice(ctx, Invoice{
		Kind:       InvoiceSale,
		CustomerID: c.ID,
		Date:       testDate("2024-06-10"),
		Items:      []InvoiceItem{{ProductID: p.ID, Qty: 3, Rate: dec("8")}},
	})
	require.NoError(t, err)
	assert.True(t, inv.Total.Equal(dec("24")), "total should be derived from items: %s", inv.Total)
}

func TestRecordInvoicePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCustomer(ctx, Customer{Name: "Slow Payer"})
	require.NoError(t, err)
	inv, err := f.store.CreateInvoice(ctx, Invoice{
		Kind: InvoiceSale, CustomerID: c.ID, Date: testDate("2024-06-01"), Total: dec("500"),
	})
	require.NoError(t, err)

	_, err = f.store.RecordInvoicePayment(ctx, inv.ID, InvoicePayment{Amount: dec("-5")})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	paid, err := f.store.RecordInvoicePayment(ctx, inv.ID, InvoicePayment{
		Date: testDate("2024-06-15"), Amount: dec("200"),
	})
	require.NoError(t, err)
	assert.True(t, paid.Outstanding(testDate("2024-06-30")).Equal(dec("300")))
	// Payment not yet visible at an earlier report date.
	assert.True(t, paid.Outstanding(testDate("2024-06-10")).Equal(dec("500")))
}

func TestConcurrentEntryWritesConserveBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.store.CreateEntry(ctx, JournalEntry{
				Date:  testDate("2024-07-01"),
				Lines: []JournalLine{debitLine(f.cash, "10"), creditLine(f.sales, "10")},
			})
		}()
	}
	wg.Wait()

	tb, err := ComputeTrialBalance(ctx, f.store, DateRange{})
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(n*10)))
}
