package search

import (
	"net/url"
	"strconv"

	"github.com/frahmantamala/practice-gateway/internal/process"
)

type SaveSearchDTO struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Query   string  `json:"query" validate:"required,max=200"`
	Filters Filters `json:"filters"`
}

// FiltersFromQuery reads ?type=&court=&status=&priority=&tags=&from=&to=&monitoring=.
func FiltersFromQuery(q url.Values) Filters {
	f := Filters{
		Type:     process.ListParam(q, "type"),
		Court:    process.ListParam(q, "court"),
		Status:   process.ListParam(q, "status"),
		Priority: process.ListParam(q, "priority"),
		Tags:     process.ListParam(q, "tags"),
		DateRange: DateRange{
			Start: q.Get("from"),
			End:   q.Get("to"),
		},
	}
	if m, err := strconv.ParseBool(q.Get("monitoring")); err == nil {
		f.Monitoring = &m
	}
	return f
}
