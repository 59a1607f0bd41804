// Package usage meters per-tenant consumption of plan-limited features.
package usage

import (
	"fmt"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
)

type Metric string

const (
	AISummaries    Metric = "aiSummaries"
	MCPCommands    Metric = "mcpCommands"
	Reports        Metric = "reports"
	DatajudQueries Metric = "datajudQueries"
	TotalProcesses Metric = "totalProcesses"
	TotalUsers     Metric = "totalUsers"
)

// Metrics lists every counter. Monthly ones reset on the 1st, the daily
// one at midnight, lifetime ones never.
var Metrics = []Metric{AISummaries, MCPCommands, Reports, DatajudQueries, TotalProcesses, TotalUsers}

func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", internal.NewValidationFieldError("metric", fmt.Sprintf("unknown usage metric %q", s), internal.ErrCodeValidationFailed)
}

type Counters struct {
	AISummaries      int       `json:"aiSummaries"`
	MCPCommands      int       `json:"mcpCommands"`
	Reports          int       `json:"reports"`
	DatajudQueries   int       `json:"datajudQueries"`
	TotalProcesses   int       `json:"totalProcesses"`
	TotalUsers       int       `json:"totalUsers"`
	LastMonthlyReset time.Time `json:"lastMonthlyReset"`
	LastDailyReset   time.Time `json:"lastDailyReset"`
}

// Fresh returns zeroed counters whose reset marks are now.
func Fresh(now time.Time) Counters {
	return Counters{LastMonthlyReset: now, LastDailyReset: now}
}

func (c Counters) Get(m Metric) int {
	switch m {
	case AISummaries:
		return c.AISummaries
	case MCPCommands:
		return c.MCPCommands
	case Reports:
		return c.Reports
	case DatajudQueries:
		return c.DatajudQueries
	case TotalProcesses:
		return c.TotalProcesses
	case TotalUsers:
		return c.TotalUsers
	}
	return 0
}

// Add returns c with amount added to m. It does not check for resets.
func (c Counters) Add(m Metric, amount int) Counters {
	switch m {
	case AISummaries:
		c.AISummaries += amount
	case MCPCommands:
		c.MCPCommands += amount
	case Reports:
		c.Reports += amount
	case DatajudQueries:
		c.DatajudQueries += amount
	case TotalProcesses:
		c.TotalProcesses += amount
	case TotalUsers:
		c.TotalUsers += amount
	}
	return c
}

func (c Counters) ResetDaily(now time.Time) Counters {
	c.DatajudQueries = 0
	c.LastDailyReset = now
	return c
}

func (c Counters) ResetMonthly(now time.Time) Counters {
	c.AISummaries = 0
	c.MCPCommands = 0
	c.Reports = 0
	c.LastMonthlyReset = now
	return c
}

// CheckAndReset applies the daily reset when the calendar day changed
// since the last one and the monthly reset when the month did. Dates are
// compared in now's location.
func (c Counters) CheckAndReset(now time.Time) (next Counters, daily, monthly bool) {
	next = c
	lastDaily := c.LastDailyReset.In(now.Location())
	if lastDaily.Year() != now.Year() || lastDaily.YearDay() != now.YearDay() {
		next = next.ResetDaily(now)
		daily = true
	}
	lastMonthly := c.LastMonthlyReset.In(now.Location())
	if lastMonthly.Year() != now.Year() || lastMonthly.Month() != now.Month() {
		next = next.ResetMonthly(now)
		monthly = true
	}
	return next, daily, monthly
}
