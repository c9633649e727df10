// Package cases owns the local copy of the case collection: the domain
// model, the status state machine, and the store that reconciles
// against the ledger.
package cases

import (
	"sort"
	"time"

	"collections_console/internal/ledger"
)

// RiskLevel classifies the compliance risk attached to a case or an
// interaction-log entry.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskModerate RiskLevel = "MODERATE"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// ParseRiskLevel maps a wire string onto the closed set, defaulting to
// UNKNOWN for anything unrecognized.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskSafe, RiskModerate, RiskCritical:
		return RiskLevel(s)
	default:
		return RiskUnknown
	}
}

// InteractionLogEntry is one immutable entry in a case's interaction
// log. Entries are append-only from the console's perspective.
type InteractionLogEntry struct {
	ID             string
	Timestamp      time.Time
	Content        string
	Risk           RiskLevel
	ViolationFlags []string
	SentimentScore *float64
}

// Case is a single receivable under collection. Score is absent until
// the case has been analyzed; Action is present iff Score is present.
type Case struct {
	ID           string
	CompanyName  string
	Amount       float64
	Phone        string
	InitialScore float64
	AgeDays      int
	Score        *float64
	Action       string
	Risk         RiskLevel
	Status       Status
	Interactions []InteractionLogEntry
}

// Scored reports whether the case already carries a priority score.
func (c Case) Scored() bool {
	return c.Score != nil
}

// InteractionDayOffsets returns the day offsets (relative to the case's
// opening, derived from its age) of all logged interactions, oldest
// first. This is the normalized history the scoring service expects.
func (c Case) InteractionDayOffsets(now time.Time) []int {
	opened := now.AddDate(0, 0, -c.AgeDays)
	offsets := make([]int, 0, len(c.Interactions))
	for _, entry := range c.Interactions {
		day := int(entry.Timestamp.Sub(opened).Hours() / 24)
		if day < 0 {
			day = 0
		}
		if day > c.AgeDays {
			day = c.AgeDays
		}
		offsets = append(offsets, day)
	}
	sort.Ints(offsets)
	return offsets
}

// fromRecord maps a ledger wire record onto the domain model. The
// score/action invariant is enforced here: an unscored record never
// carries an action, whatever the wire said.
func fromRecord(rec ledger.CaseRecord) Case {
	status, err := ParseStatus(rec.Status)
	if err != nil {
		status = StatusPending
	}

	c := Case{
		ID:           rec.CaseID,
		CompanyName:  rec.CompanyName,
		Amount:       rec.Amount,
		Phone:        rec.Phone,
		InitialScore: rec.InitialScore,
		AgeDays:      rec.AgeDays,
		Risk:         ParseRiskLevel(rec.RiskLevel),
		Status:       status,
	}

	if rec.PScore != nil {
		score := *rec.PScore
		c.Score = &score
		c.Action = rec.Decision
	}

	for _, log := range rec.HistoryLogs {
		c.Interactions = append(c.Interactions, InteractionLogEntry{
			ID:             log.ID,
			Timestamp:      log.Timestamp,
			Content:        log.Content,
			Risk:           ParseRiskLevel(log.RiskLevel),
			ViolationFlags: log.ViolationFlags,
			SentimentScore: log.SentimentScore,
		})
	}

	return c
}
