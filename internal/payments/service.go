// Package payments requests one-time checkout links from the ledger.
package payments

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"collections_console/internal/cases"
	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/internal/session"
	"collections_console/platform/apperr"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrLinkCreationFailed is returned when the ledger cannot produce a
// checkout URL. The request is made once; there is no retry.
var ErrLinkCreationFailed = apperr.Unavailable("payment link creation failed")

const qrSize = 256

// Link is a one-time checkout URL plus a scannable rendering of it.
type Link struct {
	CaseID string `json:"caseId"`
	URL    string `json:"url"`
	QRCode string `json:"qrCode"`
}

type Service struct {
	client  *ledger.Client
	session *session.Manager
	store   *cases.Store
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewService(client *ledger.Client, sess *session.Manager, store *cases.Store, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		client:  client,
		session: sess,
		store:   store,
		bus:     bus,
		log:     log,
		metrics: m,
	}
}

// RequestLink asks the ledger for a checkout URL covering the case's
// outstanding amount. One attempt per user action.
func (s *Service) RequestLink(ctx context.Context, caseID string) (Link, error) {
	c, ok := s.store.Get(caseID)
	if !ok {
		return Link{}, apperr.NotFound("case not found")
	}

	token, ok := s.session.Token()
	if !ok {
		return Link{}, cases.ErrNoSession
	}

	url, err := s.client.CreatePaymentLink(ctx, token, caseID, c.Amount)
	if err != nil {
		s.recordOutcome("failure")
		if errors.Is(err, ledger.ErrAuthExpired) {
			if invErr := s.session.Invalidate(ctx); invErr != nil {
				s.log.Warn("session invalidation failed", "error", invErr.Error())
			}
			return Link{}, err
		}
		return Link{}, fmt.Errorf("request link for case %s: %w: %w", caseID, ErrLinkCreationFailed, err)
	}
	if url == "" {
		s.recordOutcome("failure")
		return Link{}, fmt.Errorf("request link for case %s: empty url: %w", caseID, ErrLinkCreationFailed)
	}

	qr, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		// The URL is still usable without the rendering.
		s.log.Warn("qr encoding failed", "case_id", caseID, "error", err.Error())
	}

	s.recordOutcome("success")
	s.bus.Publish(ctx, events.PaymentLinkCreated{
		BaseEvent: events.NewBaseEvent(),
		CaseID:    caseID,
		URL:       url,
	})

	return Link{
		CaseID: caseID,
		URL:    url,
		QRCode: base64.StdEncoding.EncodeToString(qr),
	}, nil
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.PaymentLinks.WithLabelValues(outcome).Inc()
	}
}
