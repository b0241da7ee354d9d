package ledger

import "context"

// Service is the shared mutable store behind every ledger computation: the
// journal entry store, the account registry, and the party/product/document
// records the derived views join against.
//
// Implementations must serialize writes so that a multi-line entry becomes
// visible atomically, and must give reads snapshot-at-request-time
// semantics. Derived views (ledger, trial balance, aging) are pure
// functions over this interface and never write through it.
type Service interface {
	AccountStore
	JournalStore
	PartyStore
	ProductStore
	InvoiceStore
	DocumentStore
}

// AccountStore is the chart-of-accounts registry.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc Account) (Account, error)
	UpdateAccount(ctx context.Context, id string, acc Account) (Account, error)
	// DeleteAccount fails with AccountInUseError while any journal line or
	// linked party/product references the account.
	DeleteAccount(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (Account, error)
	ListAccounts(ctx context.Context, f AccountFilter) ([]Account, error)
}

// JournalStore holds debit/credit lines grouped into dated entries; the
// ledger's source of truth.
type JournalStore interface {
	CreateEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	UpdateEntry(ctx context.Context, id string, e JournalEntry) (JournalEntry, error)
	// DeleteEntry requires ref to match the entry's source reference when
	// the entry was created by a business document.
	DeleteEntry(ctx context.Context, id string, ref *SourceRef) error
	GetEntry(ctx context.Context, id string) (JournalEntry, error)
	// QueryEntries returns matches in ascending (date, insertion seq) order.
	QueryEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
}

// PartyStore holds customers and suppliers. Creating a party without a
// linked account allocates one in the registry (Asset for customers,
// Liability for suppliers).
type PartyStore interface {
	CreateCustomer(ctx context.Context, c Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, id string, c Customer) (Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context, search string) ([]Customer, error)

	CreateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	UpdateSupplier(ctx context.Context, id string, s Supplier) (Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	ListSuppliers(ctx context.Context, search string) ([]Supplier, error)
}

// ProductStore holds inventory items.
type ProductStore interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, search string) ([]Product, error)
}

// InvoiceStore holds sales and purchase invoices plus their payments.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	UpdateInvoice(ctx context.Context, id string, inv Invoice) (Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	GetInvoiceByBillNo(ctx context.Context, kind InvoiceKind, billNo int64) (Invoice, error)
	// LastBillNo returns the highest bill number issued for the kind, 0 when
	// none exist.
	LastBillNo(ctx context.Context, kind InvoiceKind) (int64, error)
	// ListInvoices with kind "" returns all invoices.
	ListInvoices(ctx context.Context, kind InvoiceKind) ([]Invoice, error)
	RecordInvoicePayment(ctx context.Context, id string, p InvoicePayment) (Invoice, error)
}

// DocumentStore holds receive-payment, pay-bill and expense records.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d Document) (Document, error)
	UpdateDocument(ctx context.Context, id string, d Document) (Document, error)
	DeleteDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (Document, error)
	// ListDocuments with kind "" returns all documents.
	ListDocuments(ctx context.Context, kind SourceKind) ([]Document, error)
}
