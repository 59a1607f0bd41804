package process

import "time"

// DemoTenantID is the starter-plan firm the demo processes belong to.
const DemoTenantID = "11111111-1111-1111-1111-111111111111"

// DemoSeed returns the demo processes of tenantID, if any.
func DemoSeed(tenantID string) []Process {
	out := []Process{}
	for _, p := range demoProcesses() {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out
}

func demoProcesses() []Process {
	ts := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	ptr := func(t time.Time) *time.Time { return &t }
	money := func(v float64) *float64 { return &v }

	return []Process{
		{
			ID:       "1",
			TenantID: DemoTenantID,
			Number:   "5001234-20.2023.4.03.6109",
			Type:     "Debt Collection",
			Subject:  "Collection of attorney fees - João Silva vs. Empresa ABC",
			Court:    "TJSP - 1st Civil Court",
			Status:   StatusActive,
			Parties: []Party{
				{ID: "1", Name: "João Silva", Document: "123.456.789-00", Type: "person", Role: "plaintiff"},
				{ID: "2", Name: "Empresa ABC Ltda", Document: "12.345.678/0001-90", Type: "company", Role: "defendant"},
			},
			Monitoring:     true,
			Tags:           []string{"collection", "fees", "civil"},
			Priority:       PriorityHigh,
			Lawyer:         "Dr. Carlos Oliveira",
			EstimatedValue: money(50000),
			CreatedAt:      ts("2025-01-15T08:00:00Z"),
			UpdatedAt:      ts("2025-01-20T10:30:00Z"),
			LastMovement:   ptr(ts("2025-01-20T10:30:00Z")),
		},
		{
			ID:       "2",
			TenantID: DemoTenantID,
			Number:   "5009876-15.2023.4.03.6109",
			Type:     "Labor Claim",
			Subject:  "Constructive dismissal for unpaid wages - Pedro Costa vs. Empresa XYZ",
			Court:    "TRT - 2nd Region",
			Status:   StatusActive,
			Parties: []Party{
				{ID: "3", Name: "Pedro Costa", Document: "987.654.321-00", Type: "person", Role: "plaintiff"},
				{ID: "4", Name: "Empresa XYZ Ltda", Document: "98.765.432/0001-10", Type: "company", Role: "defendant"},
			},
			Monitoring:     false,
			Tags:           []string{"labor", "dismissal", "constructive"},
			Priority:       PriorityMedium,
			Lawyer:         "Dra. Ana Paula",
			EstimatedValue: money(25000),
			CreatedAt:      ts("2025-01-10T14:30:00Z"),
			UpdatedAt:      ts("2025-01-17T14:15:00Z"),
			LastMovement:   ptr(ts("2025-01-17T14:15:00Z")),
		},
		{
			ID:       "3",
			TenantID: DemoTenantID,
			Number:   "5005555-30.2023.4.03.6109",
			Type:     "Consensual Divorce",
			Subject:  "Consensual divorce with division of assets - Roberto and Sandra Lima",
			Court:    "TJSP - Family Court",
			Status:   StatusConcluded,
			Parties: []Party{
				{ID: "5", Name: "Roberto Lima", Document: "111.222.333-44", Type: "person", Role: "plaintiff"},
				{ID: "6", Name: "Sandra Lima", Document: "555.666.777-88", Type: "person", Role: "defendant"},
			},
			Monitoring:     true,
			Tags:           []string{"family", "divorce", "consensual"},
			Priority:       PriorityLow,
			Lawyer:         "Dr. Carlos Oliveira",
			EstimatedValue: money(0),
			CreatedAt:      ts("2024-12-20T09:00:00Z"),
			UpdatedAt:      ts("2025-01-15T09:00:00Z"),
			LastMovement:   ptr(ts("2025-01-15T09:00:00Z")),
		},
	}
}
