// Package ledger provides the HTTP client for the external receivables
// ledger and scoring API. It is the only component that talks to the
// ledger; everything above it works with the decoded wire types.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"collections_console/platform/apperr"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"
)

const apiPrefix = "/api/v1"

// Client is the HTTP client for the ledger API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics enables latency recording for every operation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a new ledger API client.
func New(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges agent credentials for a bearer token.
// The endpoint is OAuth2 password-flow shaped: form-encoded body.
func (c *Client) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out TokenResponse
	if err := c.do(req, "login", "", &out); err != nil {
		return TokenResponse{}, err
	}
	if out.AccessToken == "" {
		return TokenResponse{}, apperr.Unauthorized("login rejected")
	}
	return out, nil
}

// ListCases fetches the full case collection.
func (c *Client) ListCases(ctx context.Context, token string) ([]CaseRecord, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, apiPrefix+"/cases", nil)
	if err != nil {
		return nil, err
	}

	var out []CaseRecord
	if err := c.do(req, "list_cases", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCase registers a new case in the ledger.
func (c *Client) CreateCase(ctx context.Context, token string, in CreateCaseRequest) (CaseRecord, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, apiPrefix+"/cases/create", in)
	if err != nil {
		return CaseRecord{}, err
	}

	var out CaseRecord
	if err := c.do(req, "create_case", token, &out); err != nil {
		return CaseRecord{}, err
	}
	return out, nil
}

// Analyze submits one case to the scoring service.
func (c *Client) Analyze(ctx context.Context, token string, in AnalyzeRequest) (AnalyzeResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, apiPrefix+"/analyze", in)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	var out AnalyzeResponse
	if err := c.do(req, "analyze", token, &out); err != nil {
		return AnalyzeResponse{}, err
	}
	return out, nil
}

// Ingest uploads a CSV export for bulk case import.
func (c *Client) Ingest(ctx context.Context, token, filename string, file io.Reader) (IngestResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return IngestResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return IngestResult{}, fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return IngestResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/ingest", &body)
	if err != nil {
		return IngestResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out IngestResult
	if err := c.do(req, "ingest", token, &out); err != nil {
		return IngestResult{}, err
	}
	return out, nil
}

// CreatePaymentLink requests a one-time checkout URL for a case.
func (c *Client) CreatePaymentLink(ctx context.Context, token, caseID string, amount float64) (string, error) {
	payload := map[string]interface{}{
		"case_id": caseID,
		"amount":  amount,
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, apiPrefix+"/payment/create", payload)
	if err != nil {
		return "", err
	}

	var out struct {
		PaymentURL string `json:"payment_url"`
	}
	if err := c.do(req, "create_payment_link", token, &out); err != nil {
		return "", err
	}
	return out.PaymentURL, nil
}

// LogInteraction records a text interaction against a case and returns
// the compliance verdict attached by the ledger.
func (c *Client) LogInteraction(ctx context.Context, token, caseID, text string) (ComplianceResult, error) {
	payload := map[string]string{"text": text}
	req, err := c.newJSONRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/cases/%s/log_interaction", apiPrefix, url.PathEscape(caseID)), payload)
	if err != nil {
		return ComplianceResult{}, err
	}

	var out ComplianceResult
	if err := c.do(req, "log_interaction", token, &out); err != nil {
		return ComplianceResult{}, err
	}
	return out, nil
}

// UpdateStatus asks the ledger to apply a status transition. The ledger
// re-validates independently; its rejection surfaces as a validation
// error carrying the server's detail message.
func (c *Client) UpdateStatus(ctx context.Context, token, caseID, newStatus, reason string) (CaseRecord, error) {
	payload := map[string]string{
		"new_status": newStatus,
		"reason":     reason,
	}
	req, err := c.newJSONRequest(ctx, http.MethodPatch,
		fmt.Sprintf("%s/cases/%s/status", apiPrefix, url.PathEscape(caseID)), payload)
	if err != nil {
		return CaseRecord{}, err
	}

	var out CaseRecord
	if err := c.do(req, "update_status", token, &out); err != nil {
		return CaseRecord{}, err
	}
	return out, nil
}

// UpdateContact stores a new contact phone number for a case.
func (c *Client) UpdateContact(ctx context.Context, token, caseID, phone string) error {
	payload := map[string]string{"phone": phone}
	req, err := c.newJSONRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/cases/%s/contact", apiPrefix, url.PathEscape(caseID)), payload)
	if err != nil {
		return err
	}
	return c.do(req, "update_contact", token, nil)
}

// ReportCall records a placed outbound call for the audit trail.
func (c *Client) ReportCall(ctx context.Context, token, caseID, phone string) error {
	payload := map[string]string{
		"case_id": caseID,
		"phone":   phone,
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, apiPrefix+"/calls/report", payload)
	if err != nil {
		return err
	}
	return c.do(req, "report_call", token, nil)
}

// VoiceToken fetches a short-lived telephony credential keyed to the
// current session.
func (c *Client) VoiceToken(ctx context.Context, token string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, apiPrefix+"/voice/token", nil)
	if err != nil {
		return "", err
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(req, "voice_token", token, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes the request, maps error classes uniformly, and decodes the
// response into out when out is non-nil.
func (c *Client) do(req *http.Request, operation, token string, out interface{}) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.LedgerLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.log.LedgerError(operation, err)
		return fmt.Errorf("%s: %w", operation, ErrUnreachable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Success, decode below.
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", operation, ErrAuthExpired)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail := readDetail(resp.Body)
		c.log.LedgerError(operation, fmt.Errorf("status %d: %s", resp.StatusCode, detail))
		return apperr.Validation(detail).WithOp(operation)
	default:
		c.log.LedgerError(operation, fmt.Errorf("status %d", resp.StatusCode))
		return fmt.Errorf("%s: status %d: %w", operation, resp.StatusCode, ErrUnreachable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.LedgerError(operation, err)
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

// readDetail extracts the ledger's error detail field, falling back to
// the raw body.
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "request rejected"
	}

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
