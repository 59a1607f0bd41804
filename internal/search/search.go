// Package search ranks a tenant's processes together with the shared
// legal catalog.
package search

import (
	"slices"
	"strings"
	"time"

	"github.com/frahmantamala/practice-gateway/internal/process"
)

type ResultType string

const (
	TypeProcess       ResultType = "process"
	TypeJurisprudence ResultType = "jurisprudence"
	TypeDocument      ResultType = "document"
	TypeContact       ResultType = "contact"
)

type Result struct {
	ID          string                 `json:"id"`
	Type        ResultType             `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Highlight   string                 `json:"highlight,omitempty"`
	Relevance   int                    `json:"relevance"`
	Date        time.Time              `json:"date"`
	Source      string                 `json:"source"`
	Tags        []string               `json:"tags"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Filters narrow results. Court, Status, Priority and Monitoring only
// apply to processes.
type Filters struct {
	Type       []string  `json:"type"`
	Court      []string  `json:"court"`
	Status     []string  `json:"status"`
	Priority   []string  `json:"priority"`
	DateRange  DateRange `json:"dateRange"`
	Tags       []string  `json:"tags"`
	Monitoring *bool     `json:"monitoring,omitempty"`
}

const highlightLen = 100

// truncate cuts s to n runes and always appends an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}

func has(field, q string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), q)
}

func tagScore(tags []string, q string, weight int) int {
	score := 0
	for _, t := range tags {
		if has(t, q) {
			score += weight
		}
	}
	return score
}

// q is lower-cased by the caller throughout.

func processRelevance(p process.Process, q string) int {
	score := 0
	if has(p.Number, q) {
		score += 100
	}
	if has(p.Subject, q) {
		score += 80
	}
	if has(p.Court, q) {
		score += 60
	}
	if has(p.Type, q) {
		score += 50
	}
	score += tagScore(p.Tags, q, 40)
	if has(p.Lawyer, q) {
		score += 30
	}
	for _, party := range p.Parties {
		if has(party.Name, q) {
			score += 35
		}
	}
	return score
}

func processHighlight(p process.Process, q string) string {
	switch {
	case has(p.Number, q):
		return p.Number
	case has(p.Subject, q):
		return truncate(p.Subject, highlightLen)
	}
	return p.Type
}

func processResult(p process.Process, q string) (Result, bool) {
	score := processRelevance(p, q)
	if score == 0 {
		return Result{}, false
	}
	meta := map[string]interface{}{
		"court":      p.Court,
		"status":     string(p.Status),
		"priority":   string(p.Priority),
		"monitoring": p.Monitoring,
	}
	if p.EstimatedValue != nil {
		meta["value"] = *p.EstimatedValue
	}
	return Result{
		ID:          "process_" + p.ID,
		Type:        TypeProcess,
		Title:       "Process " + p.Number,
		Description: p.Subject,
		Highlight:   processHighlight(p, q),
		Relevance:   score,
		Date:        p.CreatedAt,
		Source:      p.Court,
		Tags:        p.Tags,
		Metadata:    meta,
	}, true
}

func jurisprudenceResult(j Jurisprudence, q string) (Result, bool) {
	score := 0
	if has(j.Title, q) {
		score += 90
	}
	if has(j.Description, q) {
		score += 70
	}
	if has(j.Court, q) {
		score += 50
	}
	score += tagScore(j.Tags, q, 40)
	if score == 0 {
		return Result{}, false
	}

	highlight := truncate(j.Description, highlightLen)
	if has(j.Title, q) {
		highlight = truncate(j.Title, highlightLen)
	}
	return Result{
		ID:          "jurisprudence_" + j.ID,
		Type:        TypeJurisprudence,
		Title:       j.Title,
		Description: j.Description,
		Highlight:   highlight,
		Relevance:   score,
		Date:        j.Date,
		Source:      j.Court,
		Tags:        j.Tags,
		Metadata:    map[string]interface{}{"court": j.Court, "similarity": j.Similarity},
	}, true
}

func documentResult(d Document, q string) (Result, bool) {
	score := 0
	if has(d.Title, q) {
		score += 85
	}
	if has(d.Description, q) {
		score += 65
	}
	if has(d.Author, q) {
		score += 45
	}
	score += tagScore(d.Tags, q, 35)
	if score == 0 {
		return Result{}, false
	}

	highlight := truncate(d.Description, highlightLen)
	if has(d.Title, q) {
		highlight = d.Title
	}
	return Result{
		ID:          "document_" + d.ID,
		Type:        TypeDocument,
		Title:       d.Title,
		Description: d.Description,
		Highlight:   highlight,
		Relevance:   score,
		Date:        d.Date,
		Source:      "Internal documents",
		Tags:        d.Tags,
		Metadata:    map[string]interface{}{"category": d.Category, "format": d.Format, "author": d.Author},
	}, true
}

func contactResult(c Contact, q string, now time.Time) (Result, bool) {
	score := 0
	if has(c.Name, q) {
		score += 95
	}
	if has(c.Description, q) {
		score += 75
	}
	if has(c.Specialty, q) {
		score += 55
	}
	score += tagScore(c.Tags, q, 40)
	if score == 0 {
		return Result{}, false
	}

	highlight := truncate(c.Description, highlightLen)
	if has(c.Name, q) {
		highlight = c.Name
	}
	return Result{
		ID:          "contact_" + c.ID,
		Type:        TypeContact,
		Title:       c.Name,
		Description: c.Description,
		Highlight:   highlight,
		Relevance:   score,
		Date:        now,
		Source:      "Professional contacts",
		Tags:        c.Tags,
		Metadata: map[string]interface{}{
			"oab":       c.OAB,
			"specialty": c.Specialty,
			"phone":     c.Phone,
			"email":     c.Email,
		},
	}, true
}

// Rank scores every candidate against query, applies filters and sorts
// by relevance, keeping catalog order among equal scores. A blank query
// matches nothing.
func Rank(query string, processes []process.Process, catalog Catalog, f Filters, now time.Time) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Result{}
	}

	var all []Result
	for _, p := range processes {
		if r, ok := processResult(p, q); ok {
			all = append(all, r)
		}
	}
	for _, j := range catalog.Jurisprudence {
		if r, ok := jurisprudenceResult(j, q); ok {
			all = append(all, r)
		}
	}
	for _, d := range catalog.Documents {
		if r, ok := documentResult(d, q); ok {
			all = append(all, r)
		}
	}
	for _, c := range catalog.Contacts {
		if r, ok := contactResult(c, q, now); ok {
			all = append(all, r)
		}
	}

	start, end := f.DateRange.bounds()
	out := make([]Result, 0, len(all))
	for _, r := range all {
		if f.keep(r, start, end) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Result) int { return b.Relevance - a.Relevance })
	return out
}

// bounds parses RFC 3339 timestamps or plain dates. A plain end date
// covers that whole day.
func (d DateRange) bounds() (start, end time.Time) {
	parse := func(s string, endOfDay bool) time.Time {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			if endOfDay {
				return t.Add(24*time.Hour - time.Nanosecond)
			}
			return t
		}
		return time.Time{}
	}
	return parse(d.Start, false), parse(d.End, true)
}

func (f Filters) keep(r Result, start, end time.Time) bool {
	if len(f.Type) > 0 && !slices.Contains(f.Type, string(r.Type)) {
		return false
	}
	if !start.IsZero() && r.Date.Before(start) {
		return false
	}
	if !end.IsZero() && r.Date.After(end) {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(r.Tags, func(t string) bool { return slices.Contains(f.Tags, t) }) {
		return false
	}
	if r.Type != TypeProcess {
		return true
	}

	court, _ := r.Metadata["court"].(string)
	if len(f.Court) > 0 && !slices.ContainsFunc(f.Court, func(c string) bool {
		return has(court, strings.ToLower(c))
	}) {
		return false
	}
	status, _ := r.Metadata["status"].(string)
	if len(f.Status) > 0 && !slices.Contains(f.Status, status) {
		return false
	}
	priority, _ := r.Metadata["priority"].(string)
	if len(f.Priority) > 0 && !slices.Contains(f.Priority, priority) {
		return false
	}
	if f.Monitoring != nil {
		monitoring, _ := r.Metadata["monitoring"].(bool)
		if monitoring != *f.Monitoring {
			return false
		}
	}
	return true
}

const maxSuggestions = 5

// Suggest offers up to five distinct completions drawn from the tenant's
// process numbers, subjects and tags.
func Suggest(query string, processes []process.Process) []string {
	q := strings.ToLower(query)
	seen := map[string]bool{}
	out := []string{}
	push := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, p := range processes {
		if strings.Contains(strings.ToLower(p.Number), q) {
			push(p.Number)
		}
		if strings.Contains(strings.ToLower(p.Subject), q) {
			push(truncate(p.Subject, 50))
		}
		for _, t := range p.Tags {
			if strings.Contains(strings.ToLower(t), q) {
				push(t)
			}
		}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

const maxRecent = 10

// PushRecent puts query first, drops older duplicates and keeps ten.
func PushRecent(recent []string, query string) []string {
	next := make([]string, 0, maxRecent)
	next = append(next, query)
	for _, r := range recent {
		if r != query && len(next) < maxRecent {
			next = append(next, r)
		}
	}
	return next
}
