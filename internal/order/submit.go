package order

import (
	"context"
	"strings"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Creator persists a new order.
type Creator interface {
	CreateOrder(ctx context.Context, o *models.Order) error
}

// Observer is told about the outcome of every submission.
type Observer interface {
	OrderCreated()
	SubmitFailed(reason string)
}

type nopObserver struct{}

func (nopObserver) OrderCreated()       {}
func (nopObserver) SubmitFailed(string) {}

// Submitter turns a cart and a shipping form into a pending order.
type Submitter struct {
	creator  Creator
	log      *zap.Logger
	fee      decimal.Decimal
	observer Observer
	now      func() time.Time
	newID    func() string
}

type Option func(*Submitter)

func WithShippingFee(fee decimal.Decimal) Option {
	return func(s *Submitter) { s.fee = fee }
}

func WithObserver(o Observer) Option {
	return func(s *Submitter) { s.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Submitter) { s.now = now }
}

func NewSubmitter(creator Creator, log *zap.Logger, opts ...Option) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Submitter{
		creator:  creator,
		log:      log,
		fee:      DefaultShippingFee,
		observer: nopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Submitter) ShippingFee() decimal.Decimal { return s.fee }

// Submit validates identity, cart and shipping form in that order, then hands
// a pending order to the creator. Any creator failure is reported as
// ErrSubmitFailed; the cause is only logged.
func (s *Submitter) Submit(ctx context.Context, userID string, items []models.CartItem, form models.ShippingDetails) (*models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		s.observer.SubmitFailed("unauthenticated")
		return nil, ErrUnauthenticated
	}
	if len(items) == 0 {
		s.observer.SubmitFailed("empty_cart")
		return nil, ErrEmptyCart
	}
	if missing := MissingShippingFields(form); len(missing) > 0 {
		s.observer.SubmitFailed("missing_fields")
		return nil, &MissingFieldsError{Fields: missing}
	}

	now := s.now().UTC()
	o := &models.Order{
		ID:              s.newID(),
		UserID:          userID,
		Items:           make([]models.OrderItem, len(items)),
		ShippingDetails: form,
		TotalAmount:     ComputeTotalsWithFee(items, s.fee).Amount(),
		Status:          models.OrderStatusPending,
		OrderDate:       now,
		UpdatedAt:       now,
	}
	for i, item := range items {
		o.Items[i] = models.OrderItemFromCart(item)
	}

	if err := s.creator.CreateOrder(ctx, o); err != nil {
		s.log.Error("order submission failed",
			zap.String("user_id", userID),
			zap.Int("items", len(items)),
			zap.Error(err))
		s.observer.SubmitFailed("persistence")
		return nil, ErrSubmitFailed
	}

	s.observer.OrderCreated()
	s.log.Info("order submitted",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Float64("total_amount", o.TotalAmount))
	return o, nil
}

// MissingShippingFields returns the blank fields of form, in the order
// name, address, city, state, phone, zipcode.
func MissingShippingFields(form models.ShippingDetails) []string {
	fields := []struct {
		name  string
		value string
	}{
		{"name", form.Name},
		{"address", form.Address},
		{"city", form.City},
		{"state", form.State},
		{"phone", form.Phone},
		{"zipcode", form.Zipcode},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// VerifyClaimedTotal checks a client supplied total against the recomputed
// one. A zero claim means the client sent none.
func VerifyClaimedTotal(claimed float64, t Totals) error {
	if claimed == 0 {
		return nil
	}
	if !decimal.NewFromFloat(claimed).Round(2).Equal(t.GrandTotal) {
		return ErrTotalMismatch
	}
	return nil
}
