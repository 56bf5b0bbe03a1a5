package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
)

// PaymentGateway is the subset of the PayPal orders API the store uses.
// *paypal.Client satisfies it.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

// PaymentService creates and captures PayPal payments and keeps a record of
// each one so orders can later adopt a completed capture.
type PaymentService struct {
	gateway     PaymentGateway
	paymentRepo repositories.PaymentRepository
	currency    string
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService charging in currency.
func NewPaymentService(gateway PaymentGateway, paymentRepo repositories.PaymentRepository, currency string) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		paymentRepo: paymentRepo,
		currency:    currency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreatePaymentOrder opens a capture-intent PayPal order for total.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, userID string, total decimal.Decimal) (*paypal.Order, error) {
	if !total.IsPositive() {
		return nil, apperrors.New(apperrors.ErrValidation, "Order total must be greater than zero")
	}
	amount := total.Round(2)

	order, err := s.gateway.CreateOrder(ctx, paypal.OrderIntentCapture, []paypal.PurchaseUnitRequest{
		{
			Amount: &paypal.PurchaseUnitAmount{
				Currency: s.currency,
				Value:    amount.StringFixed(2),
			},
		},
	}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create PayPal order: %w", err)
	}

	err = s.paymentRepo.Save(ctx, &models.Payment{
		ExternalID: order.ID,
		UserID:     userID,
		Amount:     amount,
		Currency:   s.currency,
		Status:     models.PaymentStatusCreated,
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CapturePayment finalizes a PayPal order. Anything short of COMPLETED is a
// failed payment.
func (s *PaymentService) CapturePayment(ctx context.Context, userID, externalID string) (*paypal.CaptureOrderResponse, error) {
	if externalID == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "PayPal order ID is required")
	}

	capture, err := s.gateway.CaptureOrder(ctx, externalID, paypal.CaptureOrderRequest{})
	if err != nil {
		log.Printf("PayPal capture of %s failed: %v", externalID, err)
		return nil, apperrors.Wrap(apperrors.ErrPaymentFailed, "Payment failed", err)
	}
	if capture.Status != models.PaymentStatusCompleted {
		return nil, apperrors.New(apperrors.ErrPaymentFailed, "Payment failed")
	}

	payment := &models.Payment{
		ExternalID: externalID,
		UserID:     userID,
		Currency:   s.currency,
		Status:     models.PaymentStatusCompleted,
	}
	if existing, err := s.paymentRepo.GetByExternalID(ctx, externalID); err == nil {
		payment.ID = existing.ID
		payment.UserID = existing.UserID
		payment.Amount = existing.Amount
		payment.Currency = existing.Currency
	}
	if capture.Payer != nil {
		payment.PayerEmail = capture.Payer.EmailAddress
	}
	capturedAt := s.now()
	payment.CapturedAt = &capturedAt

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}
	return capture, nil
}
