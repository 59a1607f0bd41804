// Package billing derives a tenant's plan limits, invoices and current
// consumption.
package billing

import (
	"fmt"
	"time"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/usage"
)

// Unlimited marks a limit without a ceiling.
const Unlimited = -1

type Limits struct {
	Processes      int `json:"processes"`
	Users          int `json:"users"`
	MCPCommands    int `json:"mcpCommands"`
	AISummaries    int `json:"aiSummaries"`
	Reports        int `json:"reports"`
	DatajudQueries int `json:"datajudQueries"`
}

var planLimits = map[coreUser.Plan]Limits{
	coreUser.PlanStarter:      {Processes: 50, Users: 2, MCPCommands: 0, AISummaries: 10, Reports: 10, DatajudQueries: 100},
	coreUser.PlanProfessional: {Processes: 200, Users: 5, MCPCommands: 200, AISummaries: 50, Reports: 100, DatajudQueries: 500},
	coreUser.PlanBusiness:     {Processes: 500, Users: 15, MCPCommands: 1000, AISummaries: 200, Reports: 500, DatajudQueries: 2000},
	coreUser.PlanEnterprise:   {Processes: Unlimited, Users: Unlimited, MCPCommands: Unlimited, AISummaries: Unlimited, Reports: Unlimited, DatajudQueries: 10000},
}

var planPrices = map[coreUser.Plan]float64{
	coreUser.PlanStarter:      99,
	coreUser.PlanProfessional: 299,
	coreUser.PlanBusiness:     699,
	coreUser.PlanEnterprise:   1999,
}

// PlanLimits falls back to the starter limits for unknown plans.
func PlanLimits(plan coreUser.Plan) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[coreUser.PlanStarter]
}

// PlanPrice is the monthly price; unknown plans cost the starter price.
func PlanPrice(plan coreUser.Plan) float64 {
	if p, ok := planPrices[plan]; ok {
		return p
	}
	return planPrices[coreUser.PlanStarter]
}

// For returns the limit matching a usage metric. Lifetime totals map to
// the process and seat limits.
func (l Limits) For(m usage.Metric) int {
	switch m {
	case usage.AISummaries:
		return l.AISummaries
	case usage.MCPCommands:
		return l.MCPCommands
	case usage.Reports:
		return l.Reports
	case usage.DatajudQueries:
		return l.DatajudQueries
	case usage.TotalProcesses:
		return l.Processes
	case usage.TotalUsers:
		return l.Users
	}
	return Unlimited
}

type InvoiceStatus string

const (
	InvoicePaid      InvoiceStatus = "paid"
	InvoicePending   InvoiceStatus = "pending"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID          string        `json:"id"`
	Number      string        `json:"number"`
	Date        time.Time     `json:"date"`
	Period      string        `json:"period"`
	Amount      float64       `json:"amount"`
	Status      InvoiceStatus `json:"status"`
	DueDate     time.Time     `json:"dueDate"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
	DownloadURL string        `json:"downloadUrl,omitempty"`
}

// GenerateInvoices builds the last twelve monthly invoices, newest first.
// An invoice issued before now counts as paid two days ahead of its due
// date, the 10th.
func GenerateInvoices(plan coreUser.Plan, now time.Time) []Invoice {
	price := PlanPrice(plan)
	out := make([]Invoice, 0, 12)
	for i := 0; i < 12; i++ {
		issued := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		due := time.Date(issued.Year(), issued.Month(), 10, 0, 0, 0, 0, now.Location())

		inv := Invoice{
			ID:      fmt.Sprintf("inv_%d", i),
			Number:  fmt.Sprintf("INV-%d-%02d", issued.Year(), int(issued.Month())),
			Date:    issued,
			Period:  issued.Format("January 2006"),
			Amount:  price,
			Status:  InvoicePending,
			DueDate: due,
		}
		if issued.Before(now) {
			paid := due.Add(-48 * time.Hour)
			inv.Status = InvoicePaid
			inv.PaidAt = &paid
			inv.DownloadURL = fmt.Sprintf("/api/invoices/%d/%d", issued.Year(), int(issued.Month()))
		}
		out = append(out, inv)
	}
	return out
}

type PaymentType string

const (
	PaymentCreditCard PaymentType = "credit_card"
	PaymentBoleto     PaymentType = "boleto"
	PaymentPix        PaymentType = "pix"
)

type PaymentMethod struct {
	ID          string      `json:"id"`
	Type        PaymentType `json:"type"`
	Last4       string      `json:"last4,omitempty"`
	Brand       string      `json:"brand,omitempty"`
	ExpiryMonth int         `json:"expiryMonth,omitempty"`
	ExpiryYear  int         `json:"expiryYear,omitempty"`
	IsDefault   bool        `json:"isDefault"`
}

// DefaultPaymentMethod is shown until the tenant stores its own.
func DefaultPaymentMethod() PaymentMethod {
	return PaymentMethod{
		ID:          "pm_1",
		Type:        PaymentCreditCard,
		Last4:       "4532",
		Brand:       "visa",
		ExpiryMonth: 12,
		ExpiryYear:  2027,
		IsDefault:   true,
	}
}

type Meter struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

type Usage struct {
	Processes      Meter `json:"processes"`
	Users          Meter `json:"users"`
	MCPCommands    Meter `json:"mcpCommands"`
	AISummaries    Meter `json:"aiSummaries"`
	Reports        Meter `json:"reports"`
	DatajudQueries Meter `json:"datajudQueries"`
}

// ComputeUsage pairs consumption with the plan's limits. A tenant always
// has at least one member, the one asking.
func ComputeUsage(plan coreUser.Plan, processes, users int, counters usage.Counters) Usage {
	l := PlanLimits(plan)
	if users < 1 {
		users = 1
	}
	return Usage{
		Processes:      Meter{Used: processes, Limit: l.Processes},
		Users:          Meter{Used: users, Limit: l.Users},
		MCPCommands:    Meter{Used: counters.MCPCommands, Limit: l.MCPCommands},
		AISummaries:    Meter{Used: counters.AISummaries, Limit: l.AISummaries},
		Reports:        Meter{Used: counters.Reports, Limit: l.Reports},
		DatajudQueries: Meter{Used: counters.DatajudQueries, Limit: l.DatajudQueries},
	}
}

// Document is what billing persists per tenant.
type Document struct {
	Invoices      []Invoice      `json:"invoices"`
	PaymentMethod *PaymentMethod `json:"paymentMethod"`
}

// Overview is the billing page payload.
type Overview struct {
	Plan          coreUser.Plan  `json:"plan"`
	Price         float64        `json:"price"`
	Invoices      []Invoice      `json:"invoices"`
	CurrentUsage  Usage          `json:"currentUsage"`
	PaymentMethod *PaymentMethod `json:"paymentMethod"`
}
