package domain

import (
	"math"
	"time"

	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
)

const recentWindow = 30 * 24 * time.Hour

// Snapshot is the dashboard summary for one user. Money fields are cents.
type Snapshot struct {
	TotalRevenueCents   int64 `json:"total_revenue"`
	PendingRevenueCents int64 `json:"pending_revenue"`
	RecentClients       int   `json:"recent_clients"`
	RecentInvoices      int   `json:"recent_invoices"`
	OverdueInvoices     int   `json:"overdue_invoices"`
	TotalClients        int   `json:"total_clients"`
	TotalInvoices       int   `json:"total_invoices"`
	PaidInvoices        int   `json:"paid_invoices"`
	CollectionRate      int   `json:"collection_rate"`
}

// Aggregate reduces a user's clients and invoices to a Snapshot. It is pure
// and commutative over input order.
//
// Overdue counting is asymmetric on purpose: an invoice already labeled
// "overdue" is excluded, while past-due "sent" and "draft" invoices are
// included. The label marks what the user has acknowledged; the count
// surfaces what they have not.
func Aggregate(clients []clientdomain.Client, invoices []invoicedomain.Invoice, asOf time.Time) Snapshot {
	windowStart := asOf.Add(-recentWindow)

	snapshot := Snapshot{
		TotalClients:  len(clients),
		TotalInvoices: len(invoices),
	}

	for _, client := range clients {
		if !client.CreatedAt.Before(windowStart) {
			snapshot.RecentClients++
		}
	}

	for _, invoice := range invoices {
		switch invoice.Status {
		case invoicedomain.StatusPaid:
			snapshot.PaidInvoices++
			snapshot.TotalRevenueCents += invoice.TotalCents
		case invoicedomain.StatusSent, invoicedomain.StatusOverdue:
			snapshot.PendingRevenueCents += invoice.TotalCents
		}

		if !invoice.CreatedAt.Before(windowStart) {
			snapshot.RecentInvoices++
		}

		if !invoice.DueDate.IsZero() && invoice.DueDate.Before(asOf) {
			switch invoice.Status {
			case invoicedomain.StatusSent, invoicedomain.StatusDraft:
				snapshot.OverdueInvoices++
			}
		}
	}

	if snapshot.TotalInvoices > 0 {
		rate := 100 * float64(snapshot.PaidInvoices) / float64(snapshot.TotalInvoices)
		snapshot.CollectionRate = int(math.Round(rate))
	}

	return snapshot
}
