package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/domain"
	"checkoutbridge/internal/redis"
	"checkoutbridge/internal/repository"
)

// orderLockTTL must outlast one read plus one write against the order backend.
const orderLockTTL = 30 * time.Second

// Outcome describes what handling a webhook event did.
type Outcome string

const (
	OutcomeTransitioned Outcome = "transitioned"
	OutcomeAlreadyPaid  Outcome = "already_paid"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeExpired      Outcome = "expired"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeInFlight     Outcome = "in_flight"
	OutcomeBackendError Outcome = "backend_error"
)

// WebhookService verifies provider events and applies them to orders.
type WebhookService struct {
	provider PaymentProvider
	orders   repository.OrderRepository
	events   redis.EventStoreInterface
	locks    redis.LockStoreInterface
	logger   *logrus.Logger
}

// NewWebhookService creates a new WebhookService. events and locks may be
// nil, in which case duplicate deliveries are only caught by the order
// status guard.
func NewWebhookService(
	provider PaymentProvider,
	orders repository.OrderRepository,
	events redis.EventStoreInterface,
	locks redis.LockStoreInterface,
	logger *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		provider: provider,
		orders:   orders,
		events:   events,
		locks:    locks,
		logger:   logger,
	}
}

// Verify authenticates a raw webhook payload and decodes it.
func (s *WebhookService) Verify(payload []byte, signature string) (*domain.Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	event, err := s.provider.VerifyEvent(payload, signature)
	if err != nil {
		return nil, err
	}

	return event, nil
}

// HandleEvent dispatches a verified event. It never fails: order backend
// errors are logged for manual reconciliation and reported as an Outcome.
func (s *WebhookService) HandleEvent(ctx context.Context, event *domain.Event) Outcome {
	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	switch event.Type {
	case domain.EventCheckoutSessionCompleted:
		return s.handleCompleted(ctx, event, log)

	case domain.EventCheckoutSessionExpired:
		fields := logrus.Fields{}
		if event.Session != nil {
			fields["session_id"] = event.Session.ID
			fields["client_reference_id"] = event.Session.ClientReferenceID
		}
		log.WithFields(fields).Info("checkout session expired")
		return OutcomeExpired

	default:
		log.Debug("ignoring event type")
		return OutcomeIgnored
	}
}

func (s *WebhookService) handleCompleted(ctx context.Context, event *domain.Event, log *logrus.Entry) Outcome {
	session := event.Session
	if session == nil {
		log.Warn("completed event carries no checkout session, skipping")
		return OutcomeSkipped
	}
	log = log.WithField("session_id", session.ID)

	orderID, err := strconv.ParseInt(session.ClientReferenceID, 10, 64)
	if err != nil || orderID <= 0 {
		log.WithField("client_reference_id", session.ClientReferenceID).
			Warn("missing or non-numeric order reference, skipping")
		return OutcomeSkipped
	}
	log = log.WithField("order_id", orderID)

	if session.Mode != domain.SessionModePayment {
		log.WithField("mode", session.Mode).Info("session is not a one-time payment, skipping")
		return OutcomeSkipped
	}

	if session.PaymentStatus != domain.PaymentStatusPaid {
		log.WithField("payment_status", session.PaymentStatus).Info("session is not paid, skipping")
		return OutcomeSkipped
	}

	if s.events != nil {
		claimed, err := s.events.Claim(ctx, event.ID)
		switch {
		case err != nil:
			log.WithError(err).Warn("event dedup unavailable, relying on order status guard")
		case !claimed:
			log.Info("event already processed, skipping duplicate delivery")
			return OutcomeDuplicate
		}
	}

	outcome := s.markProcessing(ctx, orderID, log)

	// The claim is kept only once this delivery has settled the order.
	if (outcome == OutcomeBackendError || outcome == OutcomeInFlight) && s.events != nil {
		if err := s.events.Release(context.WithoutCancel(ctx), event.ID); err != nil {
			log.WithError(err).Warn("failed to release event claim")
		}
	}

	return outcome
}

// markProcessing moves an order to processing unless it is already paid.
func (s *WebhookService) markProcessing(ctx context.Context, orderID int64, log *logrus.Entry) Outcome {
	if s.locks != nil {
		token, acquired, err := s.locks.AcquireOrderLock(ctx, orderID, orderLockTTL)
		switch {
		case err != nil:
			log.WithError(err).Warn("order lock unavailable, proceeding without it")
		case !acquired:
			log.Info("another delivery is transitioning this order, skipping")
			return OutcomeInFlight
		default:
			defer func() {
				if err := s.locks.ReleaseOrderLock(context.WithoutCancel(ctx), orderID, token); err != nil {
					log.WithError(err).Warn("failed to release order lock")
				}
			}()
		}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		log.WithError(err).WithField("op", "get_order").
			Error("order backend read failed, order needs manual reconciliation")
		return OutcomeBackendError
	}

	if order.Status.IsPaid() {
		log.WithField("status", order.Status).Info("order already paid, no update")
		return OutcomeAlreadyPaid
	}

	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusProcessing); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"op":          "update_status",
			"from_status": order.Status,
		}).Error("order backend update failed, order needs manual reconciliation")
		return OutcomeBackendError
	}

	log.WithField("from_status", order.Status).Info("order moved to processing")
	return OutcomeTransitioned
}
