package process

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

type CreateProcessDTO struct {
	Number         string   `json:"number" validate:"required,max=64"`
	Type           string   `json:"type" validate:"required"`
	Subject        string   `json:"subject" validate:"required,max=500"`
	Court          string   `json:"court" validate:"required"`
	Status         Status   `json:"status" validate:"omitempty,oneof=active suspended archived concluded"`
	Parties        []Party  `json:"parties" validate:"dive"`
	Monitoring     bool     `json:"monitoring"`
	Tags           []string `json:"tags"`
	Priority       Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Lawyer         string   `json:"lawyer"`
	EstimatedValue *float64 `json:"estimatedValue" validate:"omitempty,min=0"`
}

// UpdateProcessDTO is a partial update; nil fields are left as they are.
type UpdateProcessDTO struct {
	Number         *string   `json:"number" validate:"omitempty,min=1,max=64"`
	Type           *string   `json:"type" validate:"omitempty,min=1"`
	Subject        *string   `json:"subject" validate:"omitempty,min=1,max=500"`
	Court          *string   `json:"court" validate:"omitempty,min=1"`
	Status         *Status   `json:"status" validate:"omitempty,oneof=active suspended archived concluded"`
	Parties        *[]Party  `json:"parties"`
	Monitoring     *bool     `json:"monitoring"`
	Tags           *[]string `json:"tags"`
	Priority       *Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Lawyer         *string   `json:"lawyer"`
	EstimatedValue *float64  `json:"estimatedValue" validate:"omitempty,min=0"`
}

func (d CreateProcessDTO) toProcess(id, tenantID string, now time.Time) Process {
	status := d.Status
	if status == "" {
		status = StatusActive
	}
	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	movement := now
	return Process{
		ID:             id,
		TenantID:       tenantID,
		Number:         strings.TrimSpace(d.Number),
		Type:           d.Type,
		Subject:        d.Subject,
		Court:          d.Court,
		Status:         status,
		Parties:        withPartyIDs(d.Parties, id),
		Monitoring:     d.Monitoring,
		Tags:           tags,
		Priority:       priority,
		Lawyer:         d.Lawyer,
		EstimatedValue: d.EstimatedValue,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastMovement:   &movement,
	}
}

func (d UpdateProcessDTO) apply(p Process, now time.Time) Process {
	if d.Number != nil {
		p.Number = strings.TrimSpace(*d.Number)
	}
	if d.Type != nil {
		p.Type = *d.Type
	}
	if d.Subject != nil {
		p.Subject = *d.Subject
	}
	if d.Court != nil {
		p.Court = *d.Court
	}
	if d.Status != nil {
		p.Status = *d.Status
	}
	if d.Parties != nil {
		p.Parties = withPartyIDs(*d.Parties, p.ID)
	}
	if d.Monitoring != nil {
		p.Monitoring = *d.Monitoring
	}
	if d.Tags != nil {
		p.Tags = append([]string{}, *d.Tags...)
	}
	if d.Priority != nil {
		p.Priority = *d.Priority
	}
	if d.Lawyer != nil {
		p.Lawyer = *d.Lawyer
	}
	if d.EstimatedValue != nil {
		v := *d.EstimatedValue
		p.EstimatedValue = &v
	}
	p.UpdatedAt = now
	return p
}

func withPartyIDs(parties []Party, processID string) []Party {
	out := make([]Party, len(parties))
	for i, party := range parties {
		if party.ID == "" {
			party.ID = processID + "-" + strconv.Itoa(i+1)
		}
		out[i] = party
	}
	return out
}

// FilterFromQuery reads ?status=&priority=&court=&monitoring=&search=.
// List parameters accept repeated keys or comma separated values.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{
		Status:   ListParam(q, "status"),
		Priority: ListParam(q, "priority"),
		Court:    ListParam(q, "court"),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if f.Search == "" {
		f.Search = strings.TrimSpace(q.Get("q"))
	}
	if m, err := strconv.ParseBool(q.Get("monitoring")); err == nil {
		f.Monitoring = &m
	}
	return f
}

// ListParam splits repeated or comma separated query values.
func ListParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
