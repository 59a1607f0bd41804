package process

import (
	"strings"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
	StatusConcluded Status = "concluded"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Party struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Document string `json:"document"`
	Type     string `json:"type" validate:"omitempty,oneof=person company"`
	Role     string `json:"role" validate:"omitempty,oneof=plaintiff defendant attorney witness other"`
}

// Process is a lawsuit tracked by a tenant.
type Process struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenantId"`
	Number         string     `json:"number"`
	Type           string     `json:"type"`
	Subject        string     `json:"subject"`
	Court          string     `json:"court"`
	Status         Status     `json:"status"`
	Parties        []Party    `json:"parties"`
	Monitoring     bool       `json:"monitoring"`
	Tags           []string   `json:"tags"`
	Priority       Priority   `json:"priority"`
	Lawyer         string     `json:"lawyer,omitempty"`
	EstimatedValue *float64   `json:"estimatedValue,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastMovement   *time.Time `json:"lastMovement,omitempty"`
}

// Filter narrows a process listing. Empty fields do not filter.
type Filter struct {
	Status     []string
	Priority   []string
	Court      []string
	Monitoring *bool
	Search     string
}

type Stats struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Monitoring   int            `json:"monitoring"`
	HighPriority int            `json:"highPriority"`
	ByStatus     map[string]int `json:"byStatus"`
	ByPriority   map[string]int `json:"byPriority"`
}

// The functions below are pure reducers over a tenant's process list. They
// never modify their input.

func add(list []Process, p Process) ([]Process, error) {
	for _, cur := range list {
		if cur.Number == p.Number {
			return nil, internal.ErrDuplicateNumber
		}
	}
	next := make([]Process, 0, len(list)+1)
	next = append(next, list...)
	return append(next, p), nil
}

func replace(list []Process, id string, fn func(Process) (Process, error)) ([]Process, Process, error) {
	for i, cur := range list {
		if cur.ID != id {
			continue
		}
		updated, err := fn(cur)
		if err != nil {
			return nil, Process{}, err
		}
		next := make([]Process, len(list))
		copy(next, list)
		next[i] = updated
		return next, updated, nil
	}
	return nil, Process{}, internal.ErrProcessNotFound
}

func remove(list []Process, id string) ([]Process, Process, error) {
	for i, cur := range list {
		if cur.ID == id {
			next := make([]Process, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			return next, cur, nil
		}
	}
	return nil, Process{}, internal.ErrProcessNotFound
}

func find(list []Process, id string) (Process, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return Process{}, false
}

// Apply returns list reduced to the processes matching f, in their
// original order.
func Apply(list []Process, f Filter) []Process {
	out := make([]Process, 0, len(list))
	for _, p := range list {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f Filter) Matches(p Process) bool {
	if len(f.Status) > 0 && !contains(f.Status, string(p.Status)) {
		return false
	}
	if len(f.Priority) > 0 && !contains(f.Priority, string(p.Priority)) {
		return false
	}
	if len(f.Court) > 0 {
		court := strings.ToLower(p.Court)
		hit := false
		for _, c := range f.Court {
			if strings.Contains(court, strings.ToLower(c)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Monitoring != nil && p.Monitoring != *f.Monitoring {
		return false
	}
	if f.Search != "" {
		return p.MatchesText(f.Search)
	}
	return true
}

// MatchesText reports whether q occurs, case-insensitively, in the number,
// subject, court, type, lawyer, a tag or a party name.
func (p Process) MatchesText(q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{p.Number, p.Subject, p.Court, p.Type, p.Lawyer} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	for _, party := range p.Parties {
		if strings.Contains(strings.ToLower(party.Name), q) {
			return true
		}
	}
	return false
}

func ComputeStats(list []Process) Stats {
	s := Stats{
		Total:      len(list),
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}
	for _, p := range list {
		if p.Status == StatusActive {
			s.Active++
		}
		if p.Monitoring {
			s.Monitoring++
		}
		if p.Priority == PriorityHigh {
			s.HighPriority++
		}
		s.ByStatus[string(p.Status)]++
		s.ByPriority[string(p.Priority)]++
	}
	return s
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
