package cases

import "time"

// Request bodies for the case endpoints.

type CreateCaseBody struct {
	CompanyName string  `json:"companyName" validate:"required"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	AgeDays     int     `json:"ageDays" validate:"gte=0"`
	CreditScore float64 `json:"creditScore"`
	Phone       string  `json:"phone,omitempty"`
}

type UpdateStatusBody struct {
	NewStatus string `json:"newStatus" validate:"required"`
	Reason    string `json:"reason,omitempty"`
}

type PatchContactBody struct {
	Phone string `json:"phone" validate:"required"`
}

type LogInteractionBody struct {
	Text string `json:"text" validate:"required"`
}

// CaseResponse is the wire shape of a case as the console serves it.
type CaseResponse struct {
	ID           string                `json:"id"`
	CompanyName  string                `json:"companyName"`
	Amount       float64               `json:"amount"`
	Phone        string                `json:"phone,omitempty"`
	InitialScore float64               `json:"initialScore"`
	AgeDays      int                   `json:"ageDays"`
	Score        *float64              `json:"score,omitempty"`
	Action       string                `json:"action,omitempty"`
	Risk         string                `json:"risk"`
	Status       string                `json:"status"`
	Interactions []InteractionResponse `json:"interactions"`
}

type InteractionResponse struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Content        string    `json:"content"`
	Risk           string    `json:"risk"`
	ViolationFlags []string  `json:"violationFlags,omitempty"`
	SentimentScore *float64  `json:"sentimentScore,omitempty"`
}

func toCaseResponse(c Case) CaseResponse {
	out := CaseResponse{
		ID:           c.ID,
		CompanyName:  c.CompanyName,
		Amount:       c.Amount,
		Phone:        c.Phone,
		InitialScore: c.InitialScore,
		AgeDays:      c.AgeDays,
		Score:        c.Score,
		Action:       c.Action,
		Risk:         string(c.Risk),
		Status:       string(c.Status),
		Interactions: make([]InteractionResponse, 0, len(c.Interactions)),
	}
	for _, entry := range c.Interactions {
		out.Interactions = append(out.Interactions, InteractionResponse{
			ID:             entry.ID,
			Timestamp:      entry.Timestamp,
			Content:        entry.Content,
			Risk:           string(entry.Risk),
			ViolationFlags: entry.ViolationFlags,
			SentimentScore: entry.SentimentScore,
		})
	}
	return out
}

func toCaseResponses(list []Case) []CaseResponse {
	out := make([]CaseResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCaseResponse(c))
	}
	return out
}
