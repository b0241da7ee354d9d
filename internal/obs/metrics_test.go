package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                      "/",
		"/metrics":                              "/metrics",
		"/v1/accounts/01HZXK3YJ0":               "/v1/accounts/:id",
		"/v1/accounts/01HZXK3YJ0/balance":       "/v1/accounts/:id/balance",
		"/v1/accounts/cash-summary":             "/v1/accounts/cash-summary",
		"/v1/invoices/last-bill-no":             "/v1/invoices/last-bill-no",
		"/v1/invoices/01HZXK3YJ0/payment":       "/v1/invoices/:id/payment",
		"/v1/ledger/01HZXK3YJ0":                 "/v1/ledger/:id",
		"/v1/customer-ledger/01HZXK3YJ0":        "/v1/customer-ledger/:id",
		"/v1/products/low-stock":                "/v1/products/low-stock",
		"/v1/trial-balance":                     "/v1/trial-balance",
		"/v1/journal-entries/01HZXK3YJ0?x=1":    "/v1/journal-entries/:id",
		"/v1/accounts/01HZXK3YJ0/extra/deep":    "/v1/accounts/01HZXK3YJ0/extra/deep",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
