package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"smartkhata.org/internal/audit"
	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
)

// ReadyProbe checks backing dependencies for /readyz (Postgres ping when a
// DSN is configured, nothing for the in-memory store).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options tunes the transport middleware.
type Options struct {
	MaxBodyBytes  int64
	RateBurst     int
	RatePerSecond int
	TokenTTL      time.Duration
	// DisableAuth drops the bearer-token requirement, used by tests and
	// local development.
	DisableAuth bool
}

func (o *Options) fillDefaults() {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 20
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 10
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = time.Hour
	}
}

// API is the HTTP layer over the ledger service.
type API struct {
	mux     *http.ServeMux
	svc     ledger.Service
	ready   ReadyProbe
	version string
	opts    Options
}

func New(svc ledger.Service, rp ReadyProbe, version string, opts Options) *API {
	opts.fillDefaults()
	a := &API{
		mux:     http.NewServeMux(),
		svc:     svc,
		ready:   rp,
		version: version,
		opts:    opts,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	// chart of accounts
	a.mux.HandleFunc("/v1/accounts", a.handleAccountsCollection)
	a.mux.HandleFunc("/v1/accounts/", a.handleAccountResource)

	// journal
	a.mux.HandleFunc("/v1/journal-entries", a.handleEntriesCollection)
	a.mux.HandleFunc("/v1/journal-entries/", a.handleEntryResource)

	// parties and products
	a.mux.HandleFunc("/v1/customers", a.handleCustomersCollection)
	a.mux.HandleFunc("/v1/customers/", a.handleCustomerResource)
	a.mux.HandleFunc("/v1/suppliers", a.handleSuppliersCollection)
	a.mux.HandleFunc("/v1/suppliers/", a.handleSupplierResource)
	a.mux.HandleFunc("/v1/products", a.handleProductsCollection)
	a.mux.HandleFunc("/v1/products/", a.handleProductResource)

	// invoices
	a.mux.HandleFunc("/v1/invoices", a.invoicesCollection(ledger.InvoiceSale))
	a.mux.HandleFunc("/v1/invoices/", a.invoiceResource(ledger.InvoiceSale, "/v1/invoices/"))
	a.mux.HandleFunc("/v1/purchase-invoices", a.invoicesCollection(ledger.InvoicePurchase))
	a.mux.HandleFunc("/v1/purchase-invoices/", a.invoiceResource(ledger.InvoicePurchase, "/v1/purchase-invoices/"))

	// payment and expense documents
	a.mux.HandleFunc("/v1/receive-payments", a.documentsCollection(ledger.SourceReceivePayment))
	a.mux.HandleFunc("/v1/receive-payments/", a.documentResource(ledger.SourceReceivePayment, "/v1/receive-payments/"))
	a.mux.HandleFunc("/v1/pay-bills", a.documentsCollection(ledger.SourcePayBill))
	a.mux.HandleFunc("/v1/pay-bills/", a.documentResource(ledger.SourcePayBill, "/v1/pay-bills/"))
	a.mux.HandleFunc("/v1/expenses", a.documentsCollection(ledger.SourceExpense))
	a.mux.HandleFunc("/v1/expenses/", a.documentResource(ledger.SourceExpense, "/v1/expenses/"))

	// derived reports
	a.mux.HandleFunc("/v1/ledger/", a.handleAccountLedger)
	a.mux.HandleFunc("/v1/customer-ledger/", a.handleCustomerLedger)
	a.mux.HandleFunc("/v1/supplier-ledger/", a.handleSupplierLedger)
	a.mux.HandleFunc("/v1/product-ledger/", a.handleProductLedger)
	a.mux.HandleFunc("/v1/trial-balance", a.handleTrialBalance)
	a.mux.HandleFunc("/v1/income-statement", a.handleIncomeStatement)
	a.mux.HandleFunc("/v1/aging", a.handleAging)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSecond)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) audit(ctx context.Context, event, entity, id string, meta map[string]string) {
	fields := map[string]any{
		"entity":    entity,
		"entity_id": id,
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}
