package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"slotpass/config"
	facilityRepo "slotpass/database/repository/facility"
	paymentRepo "slotpass/database/repository/payment"
	reservationRepo "slotpass/database/repository/reservation"
	"slotpass/models"
	"slotpass/services/subscription"
	"slotpass/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCurrency = "usd"

// Webhook event names delivered by the gateway.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// EscrowOpener opens the hold for an activated booking. Local interface so
// the payment package stays below the escrow package in the import graph.
type EscrowOpener interface {
	CreateForBooking(ctx context.Context, booking *models.Booking, ownerID string) error
}

// RetryScheduler defers work that must eventually happen but must not fail
// the webhook, such as opening an escrow after a transient store error.
type RetryScheduler interface {
	ScheduleEscrowEnsure(ctx context.Context, bookingID string) error
}

// PaymentService creates gateway orders and reconciles their outcomes from
// signed webhooks.
type PaymentService interface {
	CreateOrderForBooking(ctx context.Context, userID, bookingID string) (*GatewayOrder, error)
	CreateOrderForSubscription(ctx context.Context, ownerID string) (*GatewayOrder, error)
	HandleWebhookEvent(ctx context.Context, rawBody []byte, signature string) error
	EnsureEscrow(ctx context.Context, bookingID string) error
}

// DefaultPaymentService is the production implementation.
type DefaultPaymentService struct {
	Payments      paymentRepo.PaymentRepository
	Reservations  reservationRepo.ReservationRepository
	Facilities    facilityRepo.FacilityRepository
	Escrows       EscrowOpener
	Subscriptions subscription.SubscriptionService
	Gateway       Gateway
	Scheduler     RetryScheduler
	Logger        *zap.Logger
}

// NewPaymentService constructs a new instance of DefaultPaymentService.
func NewPaymentService(
	payments paymentRepo.PaymentRepository,
	reservations reservationRepo.ReservationRepository,
	facilities facilityRepo.FacilityRepository,
	escrows EscrowOpener,
	subscriptions subscription.SubscriptionService,
	gateway Gateway,
	scheduler RetryScheduler,
) *DefaultPaymentService {
	return &DefaultPaymentService{
		Payments:      payments,
		Reservations:  reservations,
		Facilities:    facilities,
		Escrows:       escrows,
		Subscriptions: subscriptions,
		Gateway:       gateway,
		Scheduler:     scheduler,
		Logger:        utils.GetLogger().Named("payment-service"),
	}
}

// CreateOrderForBooking opens a gateway order for an ACCEPTED booking. A
// retry while the previous order is still pending returns that order instead
// of opening a second one.
func (s *DefaultPaymentService) CreateOrderForBooking(ctx context.Context, userID, bookingID string) (*GatewayOrder, error) {
	booking, err := s.Reservations.GetUserBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.Status != models.BookingAccepted {
		return nil, ErrBookingNotPayable
	}

	existing, err := s.Payments.GetByEntity(ctx, models.EntityBooking, bookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.PaymentPending:
			return &GatewayOrder{
				OrderID:      existing.GatewayOrderID,
				ClientSecret: existing.Metadata["client_secret"],
				Amount:       existing.Amount,
				Currency:     existing.Currency,
			}, nil
		case models.PaymentCaptured:
			return nil, ErrAlreadyPaid
		}
	}

	order, err := s.Gateway.CreateOrder(ctx, booking.TotalAmount, defaultCurrency, map[string]string{
		"entity_type": models.EntityBooking,
		"booking_id":  bookingID,
	})
	if err != nil {
		return nil, err
	}
	p := &models.Payment{
		GatewayOrderID: order.OrderID,
		EntityType:     models.EntityBooking,
		EntityID:       bookingID,
		Amount:         booking.TotalAmount,
		Currency:       defaultCurrency,
		Status:         models.PaymentPending,
		Metadata:       map[string]string{"client_secret": order.ClientSecret},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.Payments.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.Logger.Info("payment order created",
		zap.String("orderID", order.OrderID),
		zap.String("bookingID", bookingID),
		zap.Int64("amount", booking.TotalAmount))
	return order, nil
}

// CreateOrderForSubscription opens a gateway order for an owner subscription.
// The subscription itself does not exist yet; the payment points at a
// placeholder entity id until capture creates the subscription and rebinds it.
func (s *DefaultPaymentService) CreateOrderForSubscription(ctx context.Context, ownerID string) (*GatewayOrder, error) {
	order, err := s.Gateway.CreateOrder(ctx, subscription.PlanAmountMinor, subscription.PlanCurrency, map[string]string{
		"entity_type": models.EntitySubscription,
		"owner_id":    ownerID,
	})
	if err != nil {
		return nil, err
	}
	p := &models.Payment{
		GatewayOrderID: order.OrderID,
		EntityType:     models.EntitySubscription,
		EntityID:       "pending-" + uuid.NewString(),
		Amount:         subscription.PlanAmountMinor,
		Currency:       subscription.PlanCurrency,
		Status:         models.PaymentPending,
		Metadata: map[string]string{
			"client_secret": order.ClientSecret,
			"owner_id":      ownerID,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.Payments.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.Logger.Info("subscription order created",
		zap.String("orderID", order.OrderID),
		zap.String("ownerID", ownerID))
	return order, nil
}

// HandleWebhookEvent reconciles a gateway delivery. The signature is checked
// over the exact raw bytes before anything is parsed; a bad signature has no
// side effects. Deliveries are at-least-once, so every branch tolerates
// replay.
func (s *DefaultPaymentService) HandleWebhookEvent(ctx context.Context, rawBody []byte, signature string) error {
	if !verifySignature(rawBody, signature) {
		utils.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		return ErrInvalidSignature
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		utils.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		return ErrMalformedEvent
	}
	entity := event.Payload.Payment.Entity

	var err error
	switch event.Event {
	case EventPaymentCaptured:
		err = s.handleCaptured(ctx, entity)
	case EventPaymentFailed:
		err = s.handleFailed(ctx, entity)
	default:
		// Unrecognized events are acknowledged so the gateway stops
		// redelivering them.
		utils.WebhookEvents.WithLabelValues(event.Event, "ignored").Inc()
		return nil
	}
	if err != nil {
		utils.WebhookEvents.WithLabelValues(event.Event, "error").Inc()
		return err
	}
	utils.WebhookEvents.WithLabelValues(event.Event, "ok").Inc()
	return nil
}

func (s *DefaultPaymentService) handleCaptured(ctx context.Context, entity models.WebhookPaymentEntity) error {
	var activated *models.Booking
	err := s.Payments.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.Payments.GetByOrderID(ctx, entity.OrderID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrUnknownOrder
		}
		if p.Status == models.PaymentCaptured {
			// Redelivery after a completed capture.
			return nil
		}
		if entity.Amount != p.Amount || !strings.EqualFold(entity.Currency, p.Currency) {
			s.Logger.Error("webhook amount mismatch",
				zap.String("orderID", entity.OrderID),
				zap.Int64("reported", entity.Amount),
				zap.Int64("recorded", p.Amount))
			return ErrAmountMismatch
		}
		if _, err := s.Payments.MarkCaptured(ctx, entity.OrderID, entity.ID, entity.Method); err != nil {
			return err
		}

		switch p.EntityType {
		case models.EntityBooking:
			booking, err := s.Reservations.GetBooking(ctx, p.EntityID)
			if err != nil {
				return err
			}
			if booking == nil {
				return ErrBookingNotFound
			}
			switch booking.Status {
			case models.BookingActive:
				activated = booking
				return nil
			case models.BookingAccepted:
			default:
				return ErrBookingNotPayable
			}
			if _, err := s.Reservations.UpdateBookingStatus(ctx, booking.ID,
				[]string{models.BookingAccepted}, models.BookingActive); err != nil {
				return err
			}
			booking.Status = models.BookingActive
			activated = booking
			return nil

		case models.EntitySubscription:
			sub, err := s.Subscriptions.Activate(ctx, p.Metadata["owner_id"])
			if err != nil {
				return err
			}
			return s.Payments.RebindEntity(ctx, entity.OrderID, sub.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if activated != nil {
		s.openEscrow(ctx, activated)
	}
	return nil
}

// openEscrow is best-effort at webhook time: the payment transition already
// committed, so a failure here is deferred to the retry queue instead of
// failing the delivery.
func (s *DefaultPaymentService) openEscrow(ctx context.Context, booking *models.Booking) {
	if err := s.ensureEscrowFor(ctx, booking); err != nil {
		s.Logger.Error("escrow creation deferred",
			zap.String("bookingID", booking.ID), zap.Error(err))
		if s.Scheduler != nil {
			if qErr := s.Scheduler.ScheduleEscrowEnsure(ctx, booking.ID); qErr != nil {
				s.Logger.Error("escrow retry scheduling failed",
					zap.String("bookingID", booking.ID), zap.Error(qErr))
			}
		}
	}
}

func (s *DefaultPaymentService) ensureEscrowFor(ctx context.Context, booking *models.Booking) error {
	facility, err := s.Facilities.GetByID(ctx, booking.FacilityID)
	if err != nil {
		return err
	}
	return s.Escrows.CreateForBooking(ctx, booking, facility.OwnerID)
}

// EnsureEscrow re-runs escrow creation for a captured booking. Invoked from
// the retry queue; creation is once-per-booking so replays are harmless.
func (s *DefaultPaymentService) EnsureEscrow(ctx context.Context, bookingID string) error {
	p, err := s.Payments.GetByEntity(ctx, models.EntityBooking, bookingID)
	if err != nil {
		return err
	}
	if p == nil || p.Status != models.PaymentCaptured {
		return nil
	}
	booking, err := s.Reservations.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	return s.ensureEscrowFor(ctx, booking)
}

func (s *DefaultPaymentService) handleFailed(ctx context.Context, entity models.WebhookPaymentEntity) error {
	p, err := s.Payments.GetByOrderID(ctx, entity.OrderID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrUnknownOrder
	}
	won, err := s.Payments.MarkFailed(ctx, entity.OrderID, entity.ID, entity.Method)
	if err != nil {
		return err
	}
	if won {
		s.Logger.Warn("payment failed",
			zap.String("orderID", entity.OrderID),
			zap.String("entityType", p.EntityType),
			zap.String("entityID", p.EntityID))
	}
	return nil
}

func verifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(config.AppConfig.WebhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
