package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkhata.org/internal/ledger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestGetAccountNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`select id, name, code, type, category, created_at from accounts`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "type", "category", "created_at"}))

	_, err := s.GetAccount(context.Background(), "missing")
	require.ErrorIs(t, err, ledger.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`select exists\(select 1 from accounts where code=`).
		WithArgs("1000", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.CreateAccount(context.Background(), ledger.Account{
		Name: "Cash", Code: "1000", Type: ledger.TypeAsset, Category: ledger.CategoryCash,
	})
	var dup *ledger.DuplicateAccountCodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "1000", dup.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountRejectsBadEnumWithoutQuerying(t *testing.T) {
	s, mock := newMockStore(t)
	_, err := s.CreateAccount(context.Background(), ledger.Account{
		Name: "X", Code: "1", Type: "Weird", Category: ledger.CategoryCash,
	})
	var vErr *ledger.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountInUse(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`select exists\(select 1 from journal_lines`).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"referenced"}).AddRow(true))
	mock.ExpectRollback()

	err := s.DeleteAccount(context.Background(), "acc-1")
	var inUse *ledger.AccountInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, "acc-1", inUse.AccountID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntryReferenceMismatch(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`select source_kind, source_id from journal_entries`).
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{"source_kind", "source_id"}).
			AddRow("invoice", "inv-1"))
	mock.ExpectRollback()

	err := s.DeleteEntry(context.Background(), "e-1", nil)
	var mismatch *ledger.ReferenceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntryWithMatchingReference(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`select source_kind, source_id from journal_entries`).
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{"source_kind", "source_id"}).
			AddRow("invoice", "inv-1"))
	mock.ExpectExec(`delete from journal_entries`).
		WithArgs("e-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.DeleteEntry(context.Background(), "e-1",
		&ledger.SourceRef{Kind: ledger.SourceInvoice, ID: "inv-1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastBillNo(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`select coalesce\(max\(bill_no\), 0\) from invoices`).
		WithArgs("sale").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(42)))

	last, err := s.LastBillNo(context.Background(), ledger.InvoiceSale)
	require.NoError(t, err)
	assert.EqualValues(t, 42, last)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEntriesRejectsInvertedRange(t *testing.T) {
	s, mock := newMockStore(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.QueryEntries(context.Background(), ledger.EntryFilter{
		Range: ledger.DateRange{Start: start, End: end},
	})
	var vErr *ledger.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.NoError(t, mock.ExpectationsWereMet())
}
