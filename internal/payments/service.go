package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	apperrors "searchsync/internal/errors"
)

// OrderCreator is the slice of the payment gateway SDK this service
// uses. The SDK's internals are a black box.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type razorpayCreator struct {
	client *razorpay.Client
}

func NewRazorpayCreator(keyID, keySecret string) OrderCreator {
	return razorpayCreator{client: razorpay.NewClient(keyID, keySecret)}
}

func (r razorpayCreator) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	return r.client.Order.Create(data, extraHeaders)
}

// CreateOrderRequest is the checkout payload from the storefront.
// Amount is in the currency's smallest unit.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the created gateway order the front end hands to checkout.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Service struct {
	creator OrderCreator
	logger  *slog.Logger
}

func NewService(creator OrderCreator, logger *slog.Logger) *Service {
	return &Service{creator: creator, logger: logger}
}

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, apperrors.New(apperrors.ErrInvalidInput, "Amount must be a positive number of minor units", nil)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return Order{}, apperrors.New(apperrors.ErrInvalidInput, "Currency must be a 3-letter ISO code", nil)
	}
	if strings.TrimSpace(req.Receipt) == "" {
		return Order{}, apperrors.New(apperrors.ErrInvalidInput, "Receipt reference is required", nil)
	}

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	resp, err := s.creator.Create(data, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Payment gateway order creation failed",
			"receipt", req.Receipt, "error", err)
		return Order{}, apperrors.New(apperrors.ErrInternal, "Could not create payment order. Please try again later.", fmt.Errorf("gateway order create: %w", err))
	}

	order := Order{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  req.Receipt,
	}
	if id, ok := resp["id"].(string); ok {
		order.ID = id
	}
	if status, ok := resp["status"].(string); ok {
		order.Status = status
	}
	if order.ID == "" {
		return Order{}, apperrors.New(apperrors.ErrInternal, "Payment gateway returned an unusable order", fmt.Errorf("order response missing id: %v", resp))
	}

	s.logger.InfoContext(ctx, "Payment order created",
		"order_id", order.ID, "receipt", order.Receipt, "amount", order.Amount)
	return order, nil
}
