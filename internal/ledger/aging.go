package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AgingBuckets groups outstanding receivables by invoice age in days:
// [0,30] recent, [31,60] mid1, [61,90] mid2, [91,∞) oldest.
type AgingBuckets struct {
	Recent decimal.Decimal `json:"recent"`
	Mid1   decimal.Decimal `json:"mid1"`
	Mid2   decimal.Decimal `json:"mid2"`
	Oldest decimal.Decimal `json:"oldest"`
}

func zeroBuckets() AgingBuckets {
	return AgingBuckets{
		Recent: decimal.Zero,
		Mid1:   decimal.Zero,
		Mid2:   decimal.Zero,
		Oldest: decimal.Zero,
	}
}

func (b *AgingBuckets) add(ageDays int64, amount decimal.Decimal) {
	switch {
	case ageDays <= 30:
		b.Recent = b.Recent.Add(amount)
	case ageDays <= 60:
		b.Mid1 = b.Mid1.Add(amount)
	case ageDays <= 90:
		b.Mid2 = b.Mid2.Add(amount)
	default:
		b.Oldest = b.Oldest.Add(amount)
	}
}

func (b *AgingBuckets) merge(o AgingBuckets) {
	b.Recent = b.Recent.Add(o.Recent)
	b.Mid1 = b.Mid1.Add(o.Mid1)
	b.Mid2 = b.Mid2.Add(o.Mid2)
	b.Oldest = b.Oldest.Add(o.Oldest)
}

// AgingRow is one customer's bucket totals.
type AgingRow struct {
	CustomerID   string       `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	Aging        AgingBuckets `json:"aging"`
}

// AgingReport is the receivables aging as of a report date. Totals are the
// column-wise sums across the rows that survived filtering.
type AgingReport struct {
	AsOf   time.Time    `json:"as_of"`
	Rows   []AgingRow   `json:"rows"`
	Totals AgingBuckets `json:"totals"`
}

type agingSource interface {
	ListCustomers(ctx context.Context, search string) ([]Customer, error)
	ListInvoices(ctx context.Context, kind InvoiceKind) ([]Invoice, error)
}

// ComputeAging buckets every customer's outstanding sales-invoice balances
// by age as of asOf. Invoices dated after asOf are invisible; fully paid
// invoices contribute nothing. nameFilter narrows customers before totals
// are computed.
func ComputeAging(ctx context.Context, src agingSource, asOf time.Time, nameFilter string) (*AgingReport, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	customers, err := src.ListCustomers(ctx, nameFilter)
	if err != nil {
		return nil, err
	}
	invoices, err := src.ListInvoices(ctx, InvoiceSale)
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[string][]Invoice)
	for _, inv := range invoices {
		byCustomer[inv.CustomerID] = append(byCustomer[inv.CustomerID], inv)
	}

	report := &AgingReport{AsOf: DateOnly(asOf), Rows: []AgingRow{}, Totals: zeroBuckets()}
	for _, c := range customers {
		row := AgingRow{CustomerID: c.ID, CustomerName: c.Name, Aging: zeroBuckets()}
		for _, inv := range byCustomer[c.ID] {
			if DateOnly(inv.Date).After(report.AsOf) {
				continue
			}
			due := inv.Outstanding(asOf)
			if !due.IsPositive() {
				continue
			}
			row.Aging.add(ageInDays(inv.Date, asOf), due)
		}
		report.Rows = append(report.Rows, row)
		report.Totals.merge(row.Aging)
	}
	return report, nil
}

// ageInDays measures whole calendar days between the invoice date and the
// report date. An invoice dated exactly 30 days back is still "recent"; 31
// days back falls into the next bucket.
func ageInDays(invoiceDate, asOf time.Time) int64 {
	return int64(DateOnly(asOf).Sub(DateOnly(invoiceDate)) / (24 * time.Hour))
}
