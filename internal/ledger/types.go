package ledger

import "time"

// TokenResponse is returned by the /token credential endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// InteractionRecord is one interaction-log entry as stored by the ledger.
// Entries are immutable once created.
type InteractionRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Content        string    `json:"content"`
	RiskLevel      string    `json:"risk_level"`
	ViolationFlags []string  `json:"violation_flags,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
}

// CaseRecord is the wire form of a collection case as returned by the
// ledger. Score and decision are absent until the case has been analyzed.
type CaseRecord struct {
	CaseID       string              `json:"case_id"`
	CompanyName  string              `json:"company_name"`
	Amount       float64             `json:"amount"`
	Phone        string              `json:"phone,omitempty"`
	InitialScore float64             `json:"initial_score"`
	AgeDays      int                 `json:"age_days"`
	PScore       *float64            `json:"p_score,omitempty"`
	Decision     string              `json:"decision,omitempty"`
	RiskLevel    string              `json:"risk_level,omitempty"`
	Status       string              `json:"status"`
	HistoryLogs  []InteractionRecord `json:"history_logs,omitempty"`
}

// CreateCaseRequest creates a new case in the ledger.
type CreateCaseRequest struct {
	CompanyName string  `json:"company_name"`
	Amount      float64 `json:"amount"`
	AgeDays     int     `json:"age_days"`
	CreditScore float64 `json:"credit_score"`
	Phone       string  `json:"phone,omitempty"`
}

// AnalyzeRequest asks the scoring service to score one case.
// HistoryLogs carries the day offsets of prior interactions.
type AnalyzeRequest struct {
	CaseID       string  `json:"case_id"`
	CompanyName  string  `json:"company_name"`
	Amount       float64 `json:"amount"`
	InitialScore float64 `json:"initial_score"`
	AgeDays      int     `json:"age_days"`
	HistoryLogs  []int   `json:"history_logs"`
}

// AllocationDecision is the recommended handling strategy for a case.
type AllocationDecision struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AnalyzeResponse is the scoring service's verdict on one case.
type AnalyzeResponse struct {
	CaseID             string             `json:"case_id"`
	Score              float64            `json:"riskon_score"`
	AllocationDecision AllocationDecision `json:"allocation_decision"`
}

// IngestResult summarizes a bulk CSV import.
type IngestResult struct {
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

// ComplianceResult is attached by the ledger's analysis service to a
// logged interaction.
type ComplianceResult struct {
	RiskLevel      string   `json:"risk_level"`
	ViolationFlags []string `json:"violation_flags"`
	SentimentScore float64  `json:"sentiment_score"`
}
