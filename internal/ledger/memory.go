package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ids"
)

// InMemory implements Service with in-process concurrency safety. A single
// RWMutex serializes writes, which is sufficient at this scale and makes
// multi-line entries atomic; readers always observe whole entries.
type InMemory struct {
	mu        sync.RWMutex
	accounts  map[string]*Account
	entries   map[string]*JournalEntry
	customers map[string]*Customer
	suppliers map[string]*Supplier
	products  map[string]*Product
	invoices  map[string]*Invoice
	documents map[string]*Document
	seq       uint64
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty ledger store.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts:  make(map[string]*Account),
		entries:   make(map[string]*JournalEntry),
		customers: make(map[string]*Customer),
		suppliers: make(map[string]*Supplier),
		products:  make(map[string]*Product),
		invoices:  make(map[string]*Invoice),
		documents: make(map[string]*Document),
	}
}

// AccountExists satisfies AccountChecker for entry validation. Callers must
// hold the lock.
func (s *InMemory) AccountExists(id string) bool {
	_, ok := s.accounts[id]
	return ok
}

// --- accounts ---

func (s *InMemory) CreateAccount(ctx context.Context, acc Account) (Account, error) {
	if err := validateAccount(acc); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.accountIDByCode(acc.Code); id != "" {
		return Account{}, &DuplicateAccountCodeError{Code: acc.Code}
	}

	acc.ID = ids.New()
	acc.CreatedAt = time.Now().UTC()
	s.accounts[acc.ID] = &acc
	return acc, nil
}

func (s *InMemory) UpdateAccount(ctx context.Context, id string, acc Account) (Account, error) {
	if err := validateAccount(acc); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if other := s.accountIDByCode(acc.Code); other != "" && other != id {
		return Account{}, &DuplicateAccountCodeError{Code: acc.Code}
	}

	existing.Name = acc.Name
	existing.Code = acc.Code
	existing.Type = acc.Type
	existing.Category = acc.Category
	return *existing, nil
}

func (s *InMemory) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	if s.accountReferenced(id) {
		return &AccountInUseError{AccountID: id}
	}
	delete(s.accounts, id)
	return nil
}

func (s *InMemory) GetAccount(ctx context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *acc, nil
}

func (s *InMemory) ListAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if !matchAccount(*acc, f) {
			continue
		}
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// accountIDByCode returns the id of the account holding code, "" when free.
// Callers must hold the lock.
func (s *InMemory) accountIDByCode(code string) string {
	for id, acc := range s.accounts {
		if acc.Code == code {
			return id
		}
	}
	return ""
}

// accountReferenced reports whether any journal line, party or product still
// points at the account. Callers must hold the lock.
func (s *InMemory) accountReferenced(id string) bool {
	for _, e := range s.entries {
		for _, line := range e.Lines {
			if line.AccountID == id {
				return true
			}
		}
	}
	for _, c := range s.customers {
		if c.AccountID == id {
			return true
		}
	}
	for _, sup := range s.suppliers {
		if sup.AccountID == id {
			return true
		}
	}
	for _, p := range s.products {
		if p.AccountID == id {
			return true
		}
	}
	return false
}

func validateAccount(acc Account) error {
	if strings.TrimSpace(acc.Name) == "" {
		return Validationf("account name is required")
	}
	if strings.TrimSpace(acc.Code) == "" {
		return Validationf("account code is required")
	}
	if !ValidType(acc.Type) {
		return Validationf("unknown account type %q", acc.Type)
	}
	if !ValidCategory(acc.Category) {
		return Validationf("unknown account category %q", acc.Category)
	}
	return nil
}

func matchAccount(acc Account, f AccountFilter) bool {
	if f.Type != "" && acc.Type != f.Type {
		return false
	}
	if f.Category != "" && acc.Category != f.Category {
		return false
	}
	if f.PaymentOnly {
		switch acc.Category {
		case CategoryCash, CategoryBank, CategoryOnline:
		default:
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(acc.Name), needle) &&
			!strings.Contains(strings.ToLower(acc.Code), needle) {
			return false
		}
	}
	return true
}

// --- journal entries ---

func (s *InMemory) CreateEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateEntry(e, s); err != nil {
		return JournalEntry{}, err
	}
	if e.Source != nil && !ValidSourceKind(e.Source.Kind) {
		return JournalEntry{}, Validationf("unknown source kind %q", e.Source.Kind)
	}

	s.seq++
	e.ID = ids.New()
	e.Seq = s.seq
	e.CreatedAt = time.Now().UTC()
	e.Lines = cloneLines(e.Lines)
	e.Source = cloneRef(e.Source)
	s.entries[e.ID] = &e
	return copyEntry(e), nil
}

func (s *InMemory) UpdateEntry(ctx context.Context, id string, e JournalEntry) (JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[id]
	if !ok {
		return JournalEntry{}, ErrNotFound
	}
	if err := ValidateEntry(e, s); err != nil {
		return JournalEntry{}, err
	}

	// Identity, insertion order and source ownership survive updates.
	existing.Date = e.Date
	existing.Description = e.Description
	existing.BillNo = e.BillNo
	existing.Lines = cloneLines(e.Lines)
	return copyEntry(*existing), nil
}

func (s *InMemory) DeleteEntry(ctx context.Context, id string, ref *SourceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if e.Source != nil {
		if ref == nil || ref.Kind != e.Source.Kind || ref.ID != e.Source.ID {
			return &ReferenceMismatchError{EntryID: id}
		}
	}
	delete(s.entries, id)
	return nil
}

func (s *InMemory) GetEntry(ctx context.Context, id string) (JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return JournalEntry{}, ErrNotFound
	}
	return copyEntry(*e), nil
}

func (s *InMemory) QueryEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !matchEntry(*e, f) {
			continue
		}
		out = append(out, copyEntry(*e))
	}
	sortEntries(out)
	return out, nil
}

// sortEntries orders ascending by date, insertion seq breaking ties.
func sortEntries(entries []JournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		di, dj := DateOnly(entries[i].Date), DateOnly(entries[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return entries[i].Seq < entries[j].Seq
	})
}

func matchEntry(e JournalEntry, f EntryFilter) bool {
	if f.AccountID != "" {
		found := false
		for _, line := range e.Lines {
			if line.AccountID == f.AccountID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Range.Contains(e.Date) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Description), needle) &&
			!strings.Contains(strings.ToLower(e.BillNo), needle) {
			return false
		}
	}
	if len(f.SourceKinds) > 0 {
		kind := EntrySourceKind(e)
		found := false
		for _, k := range f.SourceKinds {
			if k == kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// EntrySourceKind returns the source kind of an entry; entries without a
// source reference are manual.
func EntrySourceKind(e JournalEntry) SourceKind {
	if e.Source == nil {
		return SourceManual
	}
	return e.Source.Kind
}

// --- customers ---

func (s *InMemory) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Customer{}, Validationf("customer name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = ids.New()
	c.CreatedAt = time.Now().UTC()
	if c.AccountID == "" {
		acc := s.allocateLinkedAccount(c.Name, "C-"+c.ID, TypeAsset)
		c.AccountID = acc.ID
	} else if !s.AccountExists(c.AccountID) {
		return Customer{}, ErrNotFound
	}
	s.customers[c.ID] = &c
	return c, nil
}

func (s *InMemory) UpdateCustomer(ctx context.Context, id string, c Customer) (Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Customer{}, Validationf("customer name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	existing.Name = c.Name
	existing.Phone = c.Phone
	existing.Email = c.Email
	existing.Address = c.Address
	existing.OpeningBalance = c.OpeningBalance
	return *existing, nil
}

func (s *InMemory) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

func (s *InMemory) GetCustomer(ctx context.Context, id string) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return *c, nil
}

func (s *InMemory) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- suppliers ---

func (s *InMemory) CreateSupplier(ctx context.Context, sup Supplier) (Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return Supplier{}, Validationf("supplier name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sup.ID = ids.New()
	sup.CreatedAt = time.Now().UTC()
	if sup.AccountID == "" {
		acc := s.allocateLinkedAccount(sup.Name, "S-"+sup.ID, TypeLiability)
		sup.AccountID = acc.ID
	} else if !s.AccountExists(sup.AccountID) {
		return Supplier{}, ErrNotFound
	}
	s.suppliers[sup.ID] = &sup
	return sup, nil
}

func (s *InMemory) UpdateSupplier(ctx context.Context, id string, sup Supplier) (Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return Supplier{}, Validationf("supplier name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	existing.Name = sup.Name
	existing.Phone = sup.Phone
	existing.Email = sup.Email
	existing.Address = sup.Address
	existing.OpeningBalance = sup.OpeningBalance
	return *existing, nil
}

func (s *InMemory) DeleteSupplier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[id]; !ok {
		return ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

func (s *InMemory) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return *sup, nil
}

func (s *InMemory) ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		if search != "" && !strings.Contains(strings.ToLower(sup.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- products ---

func (s *InMemory) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = ids.New()
	p.CreatedAt = time.Now().UTC()
	if p.AccountID == "" {
		acc := s.allocateLinkedAccount(p.Name, "P-"+p.ID, TypeAsset)
		p.AccountID = acc.ID
	} else if !s.AccountExists(p.AccountID) {
		return Product{}, ErrNotFound
	}
	s.products[p.ID] = &p
	return p, nil
}

func (s *InMemory) UpdateProduct(ctx context.Context, id string, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	existing.Name = p.Name
	existing.UnitCost = p.UnitCost
	existing.SalePrice = p.SalePrice
	existing.LowStockThreshold = p.LowStockThreshold
	return *existing, nil
}

func (s *InMemory) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *InMemory) GetProduct(ctx context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return *p, nil
}

func (s *InMemory) ListProducts(ctx context.Context, search string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return Validationf("product name is required")
	}
	if p.UnitCost.IsNegative() || p.SalePrice.IsNegative() {
		return Validationf("product prices must be non-negative")
	}
	if p.LowStockThreshold < 0 {
		return Validationf("low stock threshold must be non-negative")
	}
	return nil
}

// allocateLinkedAccount creates the ledger account backing a party or
// product. Callers must hold the lock. The code is derived from the owner id
// so it cannot collide.
func (s *InMemory) allocateLinkedAccount(name, code string, t AccountType) Account {
	acc := Account{
		ID:        ids.New(),
		Name:      name,
		Code:      code,
		Type:      t,
		Category:  CategoryOther,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[acc.ID] = &acc
	return acc
}

// --- invoices ---

func (s *InMemory) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateInvoice(inv); err != nil {
		return Invoice{}, err
	}
	if inv.BillNo == 0 {
		inv.BillNo = s.lastBillNoLocked(inv.Kind) + 1
	} else if s.billNoTaken(inv.Kind, inv.BillNo, "") {
		return Invoice{}, Validationf("bill no %d already exists", inv.BillNo)
	}
	if inv.Total.IsZero() && len(inv.Items) > 0 {
		inv.Total = invoiceItemsTotal(inv.Items)
	}

	inv.ID = ids.New()
	inv.CreatedAt = time.Now().UTC()
	inv.Items = append([]InvoiceItem(nil), inv.Items...)
	inv.Payments = nil
	s.invoices[inv.ID] = &inv
	return copyInvoice(inv), nil
}

func (s *InMemory) UpdateInvoice(ctx context.Context, id string, inv Invoice) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	inv.Kind = existing.Kind
	if err := s.validateInvoice(inv); err != nil {
		return Invoice{}, err
	}
	if inv.BillNo != 0 && inv.BillNo != existing.BillNo && s.billNoTaken(inv.Kind, inv.BillNo, id) {
		return Invoice{}, Validationf("bill no %d already exists", inv.BillNo)
	}

	if inv.BillNo != 0 {
		existing.BillNo = inv.BillNo
	}
	existing.CustomerID = inv.CustomerID
	existing.SupplierID = inv.SupplierID
	existing.Date = inv.Date
	existing.Description = inv.Description
	existing.Items = append([]InvoiceItem(nil), inv.Items...)
	if inv.Total.IsZero() && len(inv.Items) > 0 {
		existing.Total = invoiceItemsTotal(inv.Items)
	} else {
		existing.Total = inv.Total
	}
	existing.EntryID = inv.EntryID
	return copyInvoice(*existing), nil
}

func (s *InMemory) DeleteInvoice(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(s.invoices, id)
	return nil
}

func (s *InMemory) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return copyInvoice(*inv), nil
}

func (s *InMemory) GetInvoiceByBillNo(ctx context.Context, kind InvoiceKind, billNo int64) (Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.Kind == kind && inv.BillNo == billNo {
			return copyInvoice(*inv), nil
		}
	}
	return Invoice{}, ErrNotFound
}

func (s *InMemory) LastBillNo(ctx context.Context, kind InvoiceKind) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBillNoLocked(kind), nil
}

func (s *InMemory) ListInvoices(ctx context.Context, kind InvoiceKind) ([]Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if kind != "" && inv.Kind != kind {
			continue
		}
		out = append(out, copyInvoice(*inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].BillNo < out[j].BillNo
	})
	return out, nil
}

func (s *InMemory) RecordInvoicePayment(ctx context.Context, id string, p InvoicePayment) (Invoice, error) {
	if !p.Amount.IsPositive() {
		return Invoice{}, Validationf("payment amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	inv.Payments = append(inv.Payments, p)
	return copyInvoice(*inv), nil
}

func (s *InMemory) validateInvoice(inv Invoice) error {
	switch inv.Kind {
	case InvoiceSale:
		if _, ok := s.customers[inv.CustomerID]; !ok {
			return ErrNotFound
		}
	case InvoicePurchase:
		if _, ok := s.suppliers[inv.SupplierID]; !ok {
			return ErrNotFound
		}
	default:
		return Validationf("unknown invoice kind %q", inv.Kind)
	}
	if inv.Date.IsZero() {
		return Validationf("invoice date is required")
	}
	if inv.Total.IsNegative() {
		return Validationf("invoice total must be non-negative")
	}
	for i, item := range inv.Items {
		if _, ok := s.products[item.ProductID]; !ok {
			return Validationf("item %d: unknown product %s", i, item.ProductID)
		}
		if item.Qty <= 0 {
			return Validationf("item %d: qty must be positive", i)
		}
		if item.Rate.IsNegative() {
			return Validationf("item %d: rate must be non-negative", i)
		}
	}
	return nil
}

func (s *InMemory) lastBillNoLocked(kind InvoiceKind) int64 {
	var last int64
	for _, inv := range s.invoices {
		if inv.Kind == kind && inv.BillNo > last {
			last = inv.BillNo
		}
	}
	return last
}

func (s *InMemory) billNoTaken(kind InvoiceKind, billNo int64, exceptID string) bool {
	for id, inv := range s.invoices {
		if id != exceptID && inv.Kind == kind && inv.BillNo == billNo {
			return true
		}
	}
	return false
}

func invoiceItemsTotal(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Rate.Mul(decimal.NewFromInt(item.Qty)))
	}
	return total
}

// --- documents ---

func (s *InMemory) CreateDocument(ctx context.Context, d Document) (Document, error) {
	if err := validateDocument(d); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = ids.New()
	d.CreatedAt = time.Now().UTC()
	s.documents[d.ID] = &d
	return d, nil
}

func (s *InMemory) UpdateDocument(ctx context.Context, id string, d Document) (Document, error) {
	if err := validateDocument(d); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.documents[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	existing.Date = d.Date
	existing.Description = d.Description
	existing.Amount = d.Amount
	existing.PartyID = d.PartyID
	existing.AccountID = d.AccountID
	existing.PaymentType = d.PaymentType
	existing.EntryID = d.EntryID
	return *existing, nil
}

func (s *InMemory) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

func (s *InMemory) GetDocument(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return *d, nil
}

func (s *InMemory) ListDocuments(ctx context.Context, kind SourceKind) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.documents))
	for _, d := range s.documents {
		if kind != "" && d.Kind != kind {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func validateDocument(d Document) error {
	switch d.Kind {
	case SourceReceivePayment, SourcePayBill, SourceExpense:
	default:
		return Validationf("unknown document kind %q", d.Kind)
	}
	if d.Date.IsZero() {
		return Validationf("document date is required")
	}
	if d.Amount.IsNegative() {
		return Validationf("document amount must be non-negative")
	}
	return nil
}

// --- copies ---

func copyEntry(e JournalEntry) JournalEntry {
	e.Lines = cloneLines(e.Lines)
	e.Source = cloneRef(e.Source)
	return e
}

func cloneLines(lines []JournalLine) []JournalLine {
	return append([]JournalLine(nil), lines...)
}

func cloneRef(ref *SourceRef) *SourceRef {
	if ref == nil {
		return nil
	}
	c := *ref
	return &c
}

func copyInvoice(inv Invoice) Invoice {
	inv.Items = append([]InvoiceItem(nil), inv.Items...)
	inv.Payments = append([]InvoicePayment(nil), inv.Payments...)
	return inv
}
