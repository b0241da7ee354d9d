package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ids"
	"smartkhata.org/internal/ledger"
)

// Store is the Postgres implementation of ledger.Service. Journal writes run
// in serializable transactions so a multi-line entry becomes visible
// atomically.
type Store struct {
	db *sql.DB
}

var _ ledger.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- accounts ---

func (s *Store) CreateAccount(ctx context.Context, acc ledger.Account) (ledger.Account, error) {
	if err := checkAccountFields(acc); err != nil {
		return ledger.Account{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if taken, err := codeTaken(ctx, tx, acc.Code, ""); err != nil {
		return ledger.Account{}, err
	} else if taken {
		return ledger.Account{}, &ledger.DuplicateAccountCodeError{Code: acc.Code}
	}

	acc.ID = ids.New()
	acc.CreatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		insert into accounts(id, name, code, type, category, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, acc.ID, acc.Name, acc.Code, string(acc.Type), string(acc.Category), acc.CreatedAt)
	if err != nil {
		return ledger.Account{}, err
	}
	return acc, tx.Commit()
}

func (s *Store) UpdateAccount(ctx context.Context, id string, acc ledger.Account) (ledger.Account, error) {
	if err := checkAccountFields(acc); err != nil {
		return ledger.Account{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if taken, err := codeTaken(ctx, tx, acc.Code, id); err != nil {
		return ledger.Account{}, err
	} else if taken {
		return ledger.Account{}, &ledger.DuplicateAccountCodeError{Code: acc.Code}
	}

	res, err := tx.ExecContext(ctx, `
		update accounts set name=$2, code=$3, type=$4, category=$5 where id=$1
	`, id, acc.Name, acc.Code, string(acc.Type), string(acc.Category))
	if err != nil {
		return ledger.Account{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Account{}, ledger.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return ledger.Account{}, err
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var referenced bool
	err = tx.QueryRowContext(ctx, `
		select exists(select 1 from journal_lines where account_id=$1)
		    or exists(select 1 from customers where account_id=$1)
		    or exists(select 1 from suppliers where account_id=$1)
		    or exists(select 1 from products where account_id=$1)
	`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return &ledger.AccountInUseError{AccountID: id}
	}

	res, err := tx.ExecContext(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	var acc ledger.Account
	var typ, cat string
	err := s.db.QueryRowContext(ctx, `
		select id, name, code, type, category, created_at from accounts where id=$1
	`, id).Scan(&acc.ID, &acc.Name, &acc.Code, &typ, &cat, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	acc.Type = ledger.AccountType(typ)
	acc.Category = ledger.AccountCategory(cat)
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]ledger.Account, error) {
	q := `select id, name, code, type, category, created_at from accounts`
	var conds []string
	var args []any
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("type=$%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		conds = append(conds, fmt.Sprintf("category=$%d", len(args)))
	}
	if f.PaymentOnly {
		conds = append(conds, `category in ('cash','bank','online')`)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ilike $%d or code ilike $%d)", len(args), len(args)))
	}
	if len(conds) > 0 {
		q += " where " + strings.Join(conds, " and ")
	}
	q += " order by code asc"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Account{}
	for rows.Next() {
		var acc ledger.Account
		var typ, cat string
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Code, &typ, &cat, &acc.CreatedAt); err != nil {
			return nil, err
		}
		acc.Type = ledger.AccountType(typ)
		acc.Category = ledger.AccountCategory(cat)
		out = append(out, acc)
	}
	return out, rows.Err()
}

func checkAccountFields(acc ledger.Account) error {
	if strings.TrimSpace(acc.Name) == "" {
		return ledger.Validationf("account name is required")
	}
	if strings.TrimSpace(acc.Code) == "" {
		return ledger.Validationf("account code is required")
	}
	if !ledger.ValidType(acc.Type) {
		return ledger.Validationf("unknown account type %q", acc.Type)
	}
	if !ledger.ValidCategory(acc.Category) {
		return ledger.Validationf("unknown account category %q", acc.Category)
	}
	return nil
}

func codeTaken(ctx context.Context, tx *sql.Tx, code, exceptID string) (bool, error) {
	var taken bool
	err := tx.QueryRowContext(ctx,
		`select exists(select 1 from accounts where code=$1 and id <> $2)`,
		code, exceptID).Scan(&taken)
	return taken, err
}

// txChecker lets ValidateEntry resolve account ids inside the write
// transaction.
type txChecker struct {
	ctx context.Context
	tx  *sql.Tx
}

func (c txChecker) AccountExists(id string) bool {
	var ok bool
	if err := c.tx.QueryRowContext(c.ctx,
		`select exists(select 1 from accounts where id=$1)`, id).Scan(&ok); err != nil {
		return false
	}
	return ok
}

// --- journal entries ---

func (s *Store) CreateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := ledger.ValidateEntry(e, txChecker{ctx: ctx, tx: tx}); err != nil {
		return ledger.JournalEntry{}, err
	}
	if e.Source != nil && !ledger.ValidSourceKind(e.Source.Kind) {
		return ledger.JournalEntry{}, ledger.Validationf("unknown source kind %q", e.Source.Kind)
	}

	e.ID = ids.New()
	e.CreatedAt = time.Now().UTC()
	var srcKind, srcID sql.NullString
	if e.Source != nil {
		srcKind = sql.NullString{String: string(e.Source.Kind), Valid: true}
		srcID = sql.NullString{String: e.Source.ID, Valid: true}
	}
	err = tx.QueryRowContext(ctx, `
		insert into journal_entries(id, entry_date, description, bill_no, source_kind, source_id, created_at)
		values ($1,$2,$3,$4,$5,$6,$7) returning seq
	`, e.ID, ledger.DateOnly(e.Date), e.Description, e.BillNo, srcKind, srcID, e.CreatedAt).Scan(&e.Seq)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := insertLines(ctx, tx, e.ID, e.Lines); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, tx.Commit()
}

func (s *Store) UpdateEntry(ctx context.Context, id string, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanEntry(ctx, tx, id)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := ledger.ValidateEntry(e, txChecker{ctx: ctx, tx: tx}); err != nil {
		return ledger.JournalEntry{}, err
	}

	// Identity, insertion order and source ownership survive updates.
	_, err = tx.ExecContext(ctx, `
		update journal_entries set entry_date=$2, description=$3, bill_no=$4 where id=$1
	`, id, ledger.DateOnly(e.Date), e.Description, e.BillNo)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if _, err := tx.ExecContext(ctx, `delete from journal_lines where entry_id=$1`, id); err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := insertLines(ctx, tx, id, e.Lines); err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.JournalEntry{}, err
	}

	existing.Date = ledger.DateOnly(e.Date)
	existing.Description = e.Description
	existing.BillNo = e.BillNo
	existing.Lines = e.Lines
	return existing, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string, ref *ledger.SourceRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var srcKind, srcID sql.NullString
	err = tx.QueryRowContext(ctx,
		`select source_kind, source_id from journal_entries where id=$1`, id).
		Scan(&srcKind, &srcID)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return err
	}
	if srcKind.Valid {
		if ref == nil || string(ref.Kind) != srcKind.String || ref.ID != srcID.String {
			return &ledger.ReferenceMismatchError{EntryID: id}
		}
	}
	if _, err := tx.ExecContext(ctx, `delete from journal_entries where id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer func() { _ = tx.Rollback() }()

	e, err := scanEntry(ctx, tx, id)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	lines, err := entryLines(ctx, tx, []string{id})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	e.Lines = lines[id]
	return e, tx.Commit()
}

func (s *Store) QueryEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, err
	}

	q := `select id, entry_date, description, bill_no, source_kind, source_id, seq, created_at
		from journal_entries`
	var conds []string
	var args []any
	if f.AccountID != "" {
		args = append(args, f.AccountID)
		conds = append(conds, fmt.Sprintf(
			"exists(select 1 from journal_lines l where l.entry_id=journal_entries.id and l.account_id=$%d)",
			len(args)))
	}
	if !f.Range.Start.IsZero() {
		args = append(args, ledger.DateOnly(f.Range.Start))
		conds = append(conds, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if !f.Range.End.IsZero() {
		args = append(args, ledger.DateOnly(f.Range.End))
		conds = append(conds, fmt.Sprintf("entry_date <= $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(description ilike $%d or bill_no ilike $%d)", len(args), len(args)))
	}
	if len(f.SourceKinds) > 0 {
		var manual bool
		var kinds []string
		for _, k := range f.SourceKinds {
			if k == ledger.SourceManual {
				manual = true
				continue
			}
			kinds = append(kinds, string(k))
		}
		switch {
		case manual && len(kinds) > 0:
			args = append(args, kinds)
			conds = append(conds, fmt.Sprintf("(source_kind is null or source_kind = any($%d))", len(args)))
		case manual:
			conds = append(conds, "source_kind is null")
		default:
			args = append(args, kinds)
			conds = append(conds, fmt.Sprintf("source_kind = any($%d)", len(args)))
		}
	}
	if len(conds) > 0 {
		q += " where " + strings.Join(conds, " and ")
	}
	q += " order by entry_date asc, seq asc"

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.JournalEntry
	var entryIDs []string
	for rows.Next() {
		e, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		entryIDs = append(entryIDs, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := entryLines(ctx, tx, entryIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryRow(row rowScanner) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var srcKind, srcID sql.NullString
	err := row.Scan(&e.ID, &e.Date, &e.Description, &e.BillNo, &srcKind, &srcID, &e.Seq, &e.CreatedAt)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if srcKind.Valid {
		e.Source = &ledger.SourceRef{Kind: ledger.SourceKind(srcKind.String), ID: srcID.String}
	}
	return e, nil
}

func scanEntry(ctx context.Context, tx *sql.Tx, id string) (ledger.JournalEntry, error) {
	row := tx.QueryRowContext(ctx, `
		select id, entry_date, description, bill_no, source_kind, source_id, seq, created_at
		from journal_entries where id=$1
	`, id)
	e, err := scanEntryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.JournalEntry{}, ledger.ErrNotFound
	}
	return e, err
}

func insertLines(ctx context.Context, tx *sql.Tx, entryID string, lines []ledger.JournalLine) error {
	for i, line := range lines {
		_, err := tx.ExecContext(ctx, `
			insert into journal_lines(entry_id, line_no, account_id, side, amount, narration)
			values ($1,$2,$3,$4,$5,$6)
		`, entryID, i, line.AccountID, string(line.Side), line.Amount, line.Narration)
		if err != nil {
			return err
		}
	}
	return nil
}

func entryLines(ctx context.Context, tx *sql.Tx, entryIDs []string) (map[string][]ledger.JournalLine, error) {
	out := make(map[string][]ledger.JournalLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	rows, err := tx.QueryContext(ctx, `
		select entry_id, account_id, side, amount, narration
		from journal_lines where entry_id = any($1)
		order by entry_id, line_no
	`, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entryID, side string
		var line ledger.JournalLine
		if err := rows.Scan(&entryID, &line.AccountID, &side, &line.Amount, &line.Narration); err != nil {
			return nil, err
		}
		line.Side = ledger.Side(side)
		out[entryID] = append(out[entryID], line)
	}
	return out, rows.Err()
}

// --- customers ---

func (s *Store) CreateCustomer(ctx context.Context, c ledger.Customer) (ledger.Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return ledger.Customer{}, ledger.Validationf("customer name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Customer{}, err
	}
	defer func() { _ = tx.Rollback() }()

	c.ID = ids.New()
	c.CreatedAt = time.Now().UTC()
	c.AccountID, err = ensureLinkedAccount(ctx, tx, c.AccountID, c.Name, "C-"+c.ID, ledger.TypeAsset)
	if err != nil {
		return ledger.Customer{}, err
	}
	_, err = tx.ExecContext(ctx, `
		insert into customers(id, name, phone, email, address, opening_balance, account_id, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.Name, c.Phone, c.Email, c.Address, c.OpeningBalance, c.AccountID, c.CreatedAt)
	if err != nil {
		return ledger.Customer{}, err
	}
	return c, tx.Commit()
}

func (s *Store) UpdateCustomer(ctx context.Context, id string, c ledger.Customer) (ledger.Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return ledger.Customer{}, ledger.Validationf("customer name is required")
	}
	res, err := s.db.ExecContext(ctx, `
		update customers set name=$2, phone=$3, email=$4, address=$5, opening_balance=$6 where id=$1
	`, id, c.Name, c.Phone, c.Email, c.Address, c.OpeningBalance)
	if err != nil {
		return ledger.Customer{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Customer{}, ledger.ErrNotFound
	}
	return s.GetCustomer(ctx, id)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "customers", id)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (ledger.Customer, error) {
	var c ledger.Customer
	err := s.db.QueryRowContext(ctx, `
		select id, name, phone, email, address, opening_balance, account_id, created_at
		from customers where id=$1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.OpeningBalance, &c.AccountID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Customer{}, ledger.ErrNotFound
	}
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context, search string) ([]ledger.Customer, error) {
	q := `select id, name, phone, email, address, opening_balance, account_id, created_at from customers`
	var args []any
	if search != "" {
		q += ` where name ilike $1`
		args = append(args, "%"+search+"%")
	}
	q += ` order by name asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Customer{}
	for rows.Next() {
		var c ledger.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.OpeningBalance, &c.AccountID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- suppliers ---

func (s *Store) CreateSupplier(ctx context.Context, sup ledger.Supplier) (ledger.Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return ledger.Supplier{}, ledger.Validationf("supplier name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Supplier{}, err
	}
	defer func() { _ = tx.Rollback() }()

	sup.ID = ids.New()
	sup.CreatedAt = time.Now().UTC()
	sup.AccountID, err = ensureLinkedAccount(ctx, tx, sup.AccountID, sup.Name, "S-"+sup.ID, ledger.TypeLiability)
	if err != nil {
		return ledger.Supplier{}, err
	}
	_, err = tx.ExecContext(ctx, `
		insert into suppliers(id, name, phone, email, address, opening_balance, account_id, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sup.ID, sup.Name, sup.Phone, sup.Email, sup.Address, sup.OpeningBalance, sup.AccountID, sup.CreatedAt)
	if err != nil {
		return ledger.Supplier{}, err
	}
	return sup, tx.Commit()
}

func (s *Store) UpdateSupplier(ctx context.Context, id string, sup ledger.Supplier) (ledger.Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return ledger.Supplier{}, ledger.Validationf("supplier name is required")
	}
	res, err := s.db.ExecContext(ctx, `
		update suppliers set name=$2, phone=$3, email=$4, address=$5, opening_balance=$6 where id=$1
	`, id, sup.Name, sup.Phone, sup.Email, sup.Address, sup.OpeningBalance)
	if err != nil {
		return ledger.Supplier{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Supplier{}, ledger.ErrNotFound
	}
	return s.GetSupplier(ctx, id)
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "suppliers", id)
}

func (s *Store) GetSupplier(ctx context.Context, id string) (ledger.Supplier, error) {
	var sup ledger.Supplier
	err := s.db.QueryRowContext(ctx, `
		select id, name, phone, email, address, opening_balance, account_id, created_at
		from suppliers where id=$1
	`, id).Scan(&sup.ID, &sup.Name, &sup.Phone, &sup.Email, &sup.Address, &sup.OpeningBalance, &sup.AccountID, &sup.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Supplier{}, ledger.ErrNotFound
	}
	return sup, err
}

func (s *Store) ListSuppliers(ctx context.Context, search string) ([]ledger.Supplier, error) {
	q := `select id, name, phone, email, address, opening_balance, account_id, created_at from suppliers`
	var args []any
	if search != "" {
		q += ` where name ilike $1`
		args = append(args, "%"+search+"%")
	}
	q += ` order by name asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Supplier{}
	for rows.Next() {
		var sup ledger.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Phone, &sup.Email, &sup.Address, &sup.OpeningBalance, &sup.AccountID, &sup.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

// ensureLinkedAccount resolves the party's backing account: verify the given
// one, or allocate a fresh registry row with a code derived from the owner
// id so it cannot collide.
func ensureLinkedAccount(ctx context.Context, tx *sql.Tx, accountID, name, code string, t ledger.AccountType) (string, error) {
	if accountID != "" {
		var ok bool
		if err := tx.QueryRowContext(ctx,
			`select exists(select 1 from accounts where id=$1)`, accountID).Scan(&ok); err != nil {
			return "", err
		}
		if !ok {
			return "", ledger.ErrNotFound
		}
		return accountID, nil
	}
	id := ids.New()
	_, err := tx.ExecContext(ctx, `
		insert into accounts(id, name, code, type, category, created_at)
		values ($1,$2,$3,$4,'other',$5)
	`, id, name, code, string(t), time.Now().UTC())
	return id, err
}

// --- products ---

func (s *Store) CreateProduct(ctx context.Context, p ledger.Product) (ledger.Product, error) {
	if err := checkProductFields(p); err != nil {
		return ledger.Product{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	p.ID = ids.New()
	p.CreatedAt = time.Now().UTC()
	p.AccountID, err = ensureLinkedAccount(ctx, tx, p.AccountID, p.Name, "P-"+p.ID, ledger.TypeAsset)
	if err != nil {
		return ledger.Product{}, err
	}
	_, err = tx.ExecContext(ctx, `
		insert into products(id, name, unit_cost, sale_price, low_stock_threshold, account_id, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.Name, p.UnitCost, p.SalePrice, p.LowStockThreshold, p.AccountID, p.CreatedAt)
	if err != nil {
		return ledger.Product{}, err
	}
	return p, tx.Commit()
}

func (s *Store) UpdateProduct(ctx context.Context, id string, p ledger.Product) (ledger.Product, error) {
	if err := checkProductFields(p); err != nil {
		return ledger.Product{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		update products set name=$2, unit_cost=$3, sale_price=$4, low_stock_threshold=$5 where id=$1
	`, id, p.Name, p.UnitCost, p.SalePrice, p.LowStockThreshold)
	if err != nil {
		return ledger.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Product{}, ledger.ErrNotFound
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "products", id)
}

func (s *Store) GetProduct(ctx context.Context, id string) (ledger.Product, error) {
	var p ledger.Product
	err := s.db.QueryRowContext(ctx, `
		select id, name, unit_cost, sale_price, low_stock_threshold, account_id, created_at
		from products where id=$1
	`, id).Scan(&p.ID, &p.Name, &p.UnitCost, &p.SalePrice, &p.LowStockThreshold, &p.AccountID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Product{}, ledger.ErrNotFound
	}
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, search string) ([]ledger.Product, error) {
	q := `select id, name, unit_cost, sale_price, low_stock_threshold, account_id, created_at from products`
	var args []any
	if search != "" {
		q += ` where name ilike $1`
		args = append(args, "%"+search+"%")
	}
	q += ` order by name asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Product{}
	for rows.Next() {
		var p ledger.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitCost, &p.SalePrice, &p.LowStockThreshold, &p.AccountID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func checkProductFields(p ledger.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return ledger.Validationf("product name is required")
	}
	if p.UnitCost.IsNegative() || p.SalePrice.IsNegative() {
		return ledger.Validationf("product prices must be non-negative")
	}
	if p.LowStockThreshold < 0 {
		return ledger.Validationf("low stock threshold must be non-negative")
	}
	return nil
}

// --- invoices ---

func (s *Store) CreateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return ledger.Invoice{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkInvoice(ctx, tx, inv); err != nil {
		return ledger.Invoice{}, err
	}
	if inv.BillNo == 0 {
		last, err := lastBillNo(ctx, tx, inv.Kind)
		if err != nil {
			return ledger.Invoice{}, err
		}
		inv.BillNo = last + 1
	} else {
		var taken bool
		err := tx.QueryRowContext(ctx,
			`select exists(select 1 from invoices where kind=$1 and bill_no=$2)`,
			string(inv.Kind), inv.BillNo).Scan(&taken)
		if err != nil {
			return ledger.Invoice{}, err
		}
		if taken {
			return ledger.Invoice{}, ledger.Validationf("bill no %d already exists", inv.BillNo)
		}
	}
	if inv.Total.IsZero() && len(inv.Items) > 0 {
		inv.Total = itemsTotal(inv.Items)
	}

	inv.ID = ids.New()
	inv.CreatedAt = time.Now().UTC()
	inv.Payments = nil
	_, err = tx.ExecContext(ctx, `
		insert into invoices(id, kind, bill_no, customer_id, supplier_id, invoice_date, description, total, entry_id, created_at)
		values ($1,$2,$3,nullif($4,''),nullif($5,''),$6,$7,$8,nullif($9,''),$10)
	`, inv.ID, string(inv.Kind), inv.BillNo, inv.CustomerID, inv.SupplierID,
		ledger.DateOnly(inv.Date), inv.Description, inv.Total, inv.EntryID, inv.CreatedAt)
	if err != nil {
		return ledger.Invoice{}, err
	}
	if err := insertItems(ctx, tx, inv.ID, inv.Items); err != nil {
		return ledger.Invoice{}, err
	}
	return inv, tx.Commit()
}

func (s *Store) UpdateInvoice(ctx context.Context, id string, inv ledger.Invoice) (ledger.Invoice, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return ledger.Invoice{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var kind string
	var existingBillNo int64
	err = tx.QueryRowContext(ctx, `select kind, bill_no from invoices where id=$1`, id).
		Scan(&kind, &existingBillNo)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Invoice{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Invoice{}, err
	}
	inv.Kind = ledger.InvoiceKind(kind)
	if err := checkInvoice(ctx, tx, inv); err != nil {
		return ledger.Invoice{}, err
	}
	if inv.BillNo == 0 {
		inv.BillNo = existingBillNo
	} else if inv.BillNo != existingBillNo {
		var taken bool
		err := tx.QueryRowContext(ctx,
			`select exists(select 1 from invoices where kind=$1 and bill_no=$2 and id <> $3)`,
			kind, inv.BillNo, id).Scan(&taken)
		if err != nil {
			return ledger.Invoice{}, err
		}
		if taken {
			return ledger.Invoice{}, ledger.Validationf("bill no %d already exists", inv.BillNo)
		}
	}
	if inv.Total.IsZero() && len(inv.Items) > 0 {
		inv.Total = itemsTotal(inv.Items)
	}

	_, err = tx.ExecContext(ctx, `
		update invoices set bill_no=$2, customer_id=nullif($3,''), supplier_id=nullif($4,''),
			invoice_date=$5, description=$6, total=$7, entry_id=nullif($8,'')
		where id=$1
	`, id, inv.BillNo, inv.CustomerID, inv.SupplierID,
		ledger.DateOnly(inv.Date), inv.Description, inv.Total, inv.EntryID)
	if err != nil {
		return ledger.Invoice{}, err
	}
	if _, err := tx.ExecContext(ctx, `delete from invoice_items where invoice_id=$1`, id); err != nil {
		return ledger.Invoice{}, err
	}
	if err := insertItems(ctx, tx, id, inv.Items); err != nil {
		return ledger.Invoice{}, err
	}
	if err := tx.Commit(); err != nil {
		return ledger.Invoice{}, err
	}
	return s.GetInvoice(ctx, id)
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "invoices", id)
}

func (s *Store) GetInvoice(ctx context.Context, id string) (ledger.Invoice, error) {
	return s.invoiceBy(ctx, `where id=$1`, id)
}

func (s *Store) GetInvoiceByBillNo(ctx context.Context, kind ledger.InvoiceKind, billNo int64) (ledger.Invoice, error) {
	return s.invoiceBy(ctx, `where kind=$1 and bill_no=$2`, string(kind), billNo)
}

func (s *Store) invoiceBy(ctx context.Context, where string, args ...any) (ledger.Invoice, error) {
	var inv ledger.Invoice
	var kind string
	var customerID, supplierID, entryID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select id, kind, bill_no, customer_id, supplier_id, invoice_date, description, total, entry_id, created_at
		from invoices `+where, args...).
		Scan(&inv.ID, &kind, &inv.BillNo, &customerID, &supplierID,
			&inv.Date, &inv.Description, &inv.Total, &entryID, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Invoice{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Invoice{}, err
	}
	inv.Kind = ledger.InvoiceKind(kind)
	inv.CustomerID = customerID.String
	inv.SupplierID = supplierID.String
	inv.EntryID = entryID.String

	inv.Items, err = s.invoiceItems(ctx, inv.ID)
	if err != nil {
		return ledger.Invoice{}, err
	}
	inv.Payments, err = s.invoicePayments(ctx, inv.ID)
	if err != nil {
		return ledger.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) LastBillNo(ctx context.Context, kind ledger.InvoiceKind) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx,
		`select coalesce(max(bill_no), 0) from invoices where kind=$1`, string(kind)).Scan(&last)
	return last, err
}

func lastBillNo(ctx context.Context, tx *sql.Tx, kind ledger.InvoiceKind) (int64, error) {
	var last int64
	err := tx.QueryRowContext(ctx,
		`select coalesce(max(bill_no), 0) from invoices where kind=$1`, string(kind)).Scan(&last)
	return last, err
}

func (s *Store) ListInvoices(ctx context.Context, kind ledger.InvoiceKind) ([]ledger.Invoice, error) {
	q := `select id, kind, bill_no, customer_id, supplier_id, invoice_date, description, total, entry_id, created_at
		from invoices`
	var args []any
	if kind != "" {
		q += ` where kind=$1`
		args = append(args, string(kind))
	}
	q += ` order by invoice_date asc, bill_no asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Invoice{}
	for rows.Next() {
		var inv ledger.Invoice
		var k string
		var customerID, supplierID, entryID sql.NullString
		if err := rows.Scan(&inv.ID, &k, &inv.BillNo, &customerID, &supplierID,
			&inv.Date, &inv.Description, &inv.Total, &entryID, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.Kind = ledger.InvoiceKind(k)
		inv.CustomerID = customerID.String
		inv.SupplierID = supplierID.String
		inv.EntryID = entryID.String
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Items, err = s.invoiceItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Payments, err = s.invoicePayments(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) RecordInvoicePayment(ctx context.Context, id string, p ledger.InvoicePayment) (ledger.Invoice, error) {
	if !p.Amount.IsPositive() {
		return ledger.Invoice{}, ledger.Validationf("payment amount must be positive")
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		insert into invoice_payments(invoice_id, paid_at, amount)
		select $1, $2, $3 where exists(select 1 from invoices where id=$1)
	`, id, ledger.DateOnly(p.Date), p.Amount)
	if err != nil {
		return ledger.Invoice{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Invoice{}, ledger.ErrNotFound
	}
	return s.GetInvoice(ctx, id)
}

func (s *Store) invoiceItems(ctx context.Context, invoiceID string) ([]ledger.InvoiceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		select product_id, qty, rate from invoice_items where invoice_id=$1 order by line_no
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.InvoiceItem
	for rows.Next() {
		var item ledger.InvoiceItem
		if err := rows.Scan(&item.ProductID, &item.Qty, &item.Rate); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) invoicePayments(ctx context.Context, invoiceID string) ([]ledger.InvoicePayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select paid_at, amount from invoice_payments where invoice_id=$1 order by paid_at
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.InvoicePayment
	for rows.Next() {
		var p ledger.InvoicePayment
		if err := rows.Scan(&p.Date, &p.Amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func checkInvoice(ctx context.Context, tx *sql.Tx, inv ledger.Invoice) error {
	switch inv.Kind {
	case ledger.InvoiceSale:
		if ok, err := rowExists(ctx, tx, `select exists(select 1 from customers where id=$1)`, inv.CustomerID); err != nil {
			return err
		} else if !ok {
			return ledger.ErrNotFound
		}
	case ledger.InvoicePurchase:
		if ok, err := rowExists(ctx, tx, `select exists(select 1 from suppliers where id=$1)`, inv.SupplierID); err != nil {
			return err
		} else if !ok {
			return ledger.ErrNotFound
		}
	default:
		return ledger.Validationf("unknown invoice kind %q", inv.Kind)
	}
	if inv.Date.IsZero() {
		return ledger.Validationf("invoice date is required")
	}
	if inv.Total.IsNegative() {
		return ledger.Validationf("invoice total must be non-negative")
	}
	for i, item := range inv.Items {
		if ok, err := rowExists(ctx, tx, `select exists(select 1 from products where id=$1)`, item.ProductID); err != nil {
			return err
		} else if !ok {
			return ledger.Validationf("item %d: unknown product %s", i, item.ProductID)
		}
		if item.Qty <= 0 {
			return ledger.Validationf("item %d: qty must be positive", i)
		}
		if item.Rate.IsNegative() {
			return ledger.Validationf("item %d: rate must be non-negative", i)
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, invoiceID string, items []ledger.InvoiceItem) error {
	for i, item := range items {
		_, err := tx.ExecContext(ctx, `
			insert into invoice_items(invoice_id, line_no, product_id, qty, rate)
			values ($1,$2,$3,$4,$5)
		`, invoiceID, i, item.ProductID, item.Qty, item.Rate)
		if err != nil {
			return err
		}
	}
	return nil
}

func itemsTotal(items []ledger.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Rate.Mul(decimal.NewFromInt(item.Qty)))
	}
	return total
}

// --- documents ---

func (s *Store) CreateDocument(ctx context.Context, d ledger.Document) (ledger.Document, error) {
	if err := checkDocument(d); err != nil {
		return ledger.Document{}, err
	}
	d.ID = ids.New()
	d.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		insert into documents(id, kind, doc_date, description, amount, party_id, account_id, payment_type, entry_id, created_at)
		values ($1,$2,$3,$4,$5,nullif($6,''),nullif($7,''),$8,nullif($9,''),$10)
	`, d.ID, string(d.Kind), ledger.DateOnly(d.Date), d.Description, d.Amount,
		d.PartyID, d.AccountID, d.PaymentType, d.EntryID, d.CreatedAt)
	if err != nil {
		return ledger.Document{}, err
	}
	return d, nil
}

func (s *Store) UpdateDocument(ctx context.Context, id string, d ledger.Document) (ledger.Document, error) {
	if err := checkDocument(d); err != nil {
		return ledger.Document{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		update documents set doc_date=$2, description=$3, amount=$4,
			party_id=nullif($5,''), account_id=nullif($6,''), payment_type=$7, entry_id=nullif($8,'')
		where id=$1
	`, id, ledger.DateOnly(d.Date), d.Description, d.Amount, d.PartyID, d.AccountID, d.PaymentType, d.EntryID)
	if err != nil {
		return ledger.Document{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Document{}, ledger.ErrNotFound
	}
	return s.GetDocument(ctx, id)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, "documents", id)
}

func (s *Store) GetDocument(ctx context.Context, id string) (ledger.Document, error) {
	var d ledger.Document
	var kind string
	var partyID, accountID, entryID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select id, kind, doc_date, description, amount, party_id, account_id, payment_type, entry_id, created_at
		from documents where id=$1
	`, id).Scan(&d.ID, &kind, &d.Date, &d.Description, &d.Amount, &partyID, &accountID, &d.PaymentType, &entryID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Document{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Document{}, err
	}
	d.Kind = ledger.SourceKind(kind)
	d.PartyID = partyID.String
	d.AccountID = accountID.String
	d.EntryID = entryID.String
	return d, nil
}

func (s *Store) ListDocuments(ctx context.Context, kind ledger.SourceKind) ([]ledger.Document, error) {
	q := `select id, kind, doc_date, description, amount, party_id, account_id, payment_type, entry_id, created_at
		from documents`
	var args []any
	if kind != "" {
		q += ` where kind=$1`
		args = append(args, string(kind))
	}
	q += ` order by doc_date asc, id asc`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Document{}
	for rows.Next() {
		var d ledger.Document
		var k string
		var partyID, accountID, entryID sql.NullString
		if err := rows.Scan(&d.ID, &k, &d.Date, &d.Description, &d.Amount, &partyID, &accountID, &d.PaymentType, &entryID, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Kind = ledger.SourceKind(k)
		d.PartyID = partyID.String
		d.AccountID = accountID.String
		d.EntryID = entryID.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func checkDocument(d ledger.Document) error {
	switch d.Kind {
	case ledger.SourceReceivePayment, ledger.SourcePayBill, ledger.SourceExpense:
	default:
		return ledger.Validationf("unknown document kind %q", d.Kind)
	}
	if d.Date.IsZero() {
		return ledger.Validationf("document date is required")
	}
	if d.Amount.IsNegative() {
		return ledger.Validationf("document amount must be non-negative")
	}
	return nil
}

// --- helpers ---

func rowExists(ctx context.Context, tx *sql.Tx, query, arg string) (bool, error) {
	var ok bool
	err := tx.QueryRowContext(ctx, query, arg).Scan(&ok)
	return ok, err
}

func deleteByID(ctx context.Context, db *sql.DB, table, id string) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`delete from %s where id=$1`, table), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
