package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seonmall/storefront/config"
	"github.com/seonmall/storefront/internal/app/model"
	"github.com/seonmall/storefront/internal/storage"
	"github.com/seonmall/storefront/pkg/api"
	"github.com/seonmall/storefront/pkg/logger"
	"github.com/seonmall/storefront/pkg/sealed"
	"github.com/seonmall/storefront/pkg/validate"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrLoginRequired     = errors.New("sign in required for this payment method")
	ErrInvalidTransition = errors.New("invalid checkout step transition")
)

// ValidationError carries field-level messages for a rejected form. These
// never reach the network; the caller surfaces them inline.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// CheckoutService drives the linear checkout wizard over the cart, session
// and API client: shipping, then payment (skipped for cash on delivery),
// then review, then confirmation.
type CheckoutService interface {
	Begin(ctx context.Context) error
	ActiveStep() model.CheckoutStep
	Draft() model.CheckoutDraft
	SetField(ctx context.Context, name, value string)
	SetShippingMethod(ctx context.Context, method model.ShippingMethod)
	SetPaymentMethod(ctx context.Context, method model.PaymentMethod)
	RequiresLogin() bool
	SubmitShipping(ctx context.Context) (model.CheckoutStep, error)
	SubmitPayment(ctx context.Context) (model.CheckoutStep, error)
	EditStep(step model.CheckoutStep) error
	Summary() model.OrderSummary
	PlaceOrder(ctx context.Context) (string, error)
	OrderID() string
}

type checkoutService struct {
	cart    CartService
	session SessionService
	client  *api.Client
	store   storage.Store
	box     *sealed.Box
	cfg     config.CheckoutConfig

	draft   *model.CheckoutDraft
	orderID string
}

// NewCheckoutService restores any persisted draft. A corrupt, unreadable or
// unopenable draft is discarded silently and checkout starts fresh at the
// shipping step.
func NewCheckoutService(
	ctx context.Context,
	cart CartService,
	session SessionService,
	client *api.Client,
	store storage.Store,
	box *sealed.Box,
	cfg config.CheckoutConfig,
) CheckoutService {
	s := &checkoutService{
		cart:    cart,
		session: session,
		client:  client,
		store:   store,
		box:     box,
		cfg:     cfg,
		draft:   model.NewCheckoutDraft(),
	}
	s.restoreDraft(ctx)
	return s
}

// Begin is the checkout entry guard: an empty cart with no order placed
// yet sends the shopper away, and a stale draft for the emptied cart is
// dropped.
func (s *checkoutService) Begin(ctx context.Context) error {
	if s.cart.Cart().IsEmpty() && s.orderID == "" {
		s.clearDraft(ctx)
		return ErrEmptyCart
	}
	return nil
}

func (s *checkoutService) ActiveStep() model.CheckoutStep {
	return s.draft.ActiveStep
}

func (s *checkoutService) Draft() model.CheckoutDraft {
	out := *s.draft
	out.FormData = make(map[string]string, len(s.draft.FormData))
	for k, v := range s.draft.FormData {
		out.FormData[k] = v
	}
	return out
}

func (s *checkoutService) SetField(ctx context.Context, name, value string) {
	if s.draft.FormData == nil {
		s.draft.FormData = make(map[string]string)
	}
	s.draft.FormData[name] = value
	s.persistDraft(ctx)
}

func (s *checkoutService) SetShippingMethod(ctx context.Context, method model.ShippingMethod) {
	s.draft.ShippingMethod = method
	s.persistDraft(ctx)
}

func (s *checkoutService) SetPaymentMethod(ctx context.Context, method model.PaymentMethod) {
	s.draft.PaymentMethod = method
	s.persistDraft(ctx)
}

// RequiresLogin reports whether the chosen payment method needs an
// authenticated session. Card and PayPal do; guests keep cash on delivery.
func (s *checkoutService) RequiresLogin() bool {
	if s.session.IsLoggedIn() {
		return false
	}
	return s.draft.PaymentMethod == model.PaymentCard || s.draft.PaymentMethod == model.PaymentPaypal
}

// SubmitShipping validates the address form and advances the wizard. Cash
// on delivery goes straight to review, every other method visits payment.
func (s *checkoutService) SubmitShipping(ctx context.Context) (model.CheckoutStep, error) {
	if s.draft.ActiveStep != model.StepShipping {
		return s.draft.ActiveStep, ErrInvalidTransition
	}

	fields := map[string]string{}
	for _, name := range []string{"fullName", "street", "city", "state", "zip", "country"} {
		if !validate.Required(s.draft.Field(name)) {
			fields[name] = "required"
		}
	}
	if !validate.Email(s.draft.Field("email")) {
		fields["email"] = "invalid email address"
	}
	if !validate.Phone(s.draft.Field("phone"), s.cfg.PhonePattern) {
		fields["phone"] = "invalid phone number"
	}
	if len(fields) > 0 {
		return s.draft.ActiveStep, &ValidationError{Fields: fields}
	}

	if s.draft.PaymentMethod == model.PaymentCOD {
		s.draft.ActiveStep = model.StepReview
	} else {
		s.draft.ActiveStep = model.StepPayment
	}
	s.persistDraft(ctx)

	logger.Debug("Shipping step accepted", map[string]interface{}{
		"next": s.draft.ActiveStep,
	})
	return s.draft.ActiveStep, nil
}

// SubmitPayment validates card details when paying by card and advances to
// review. While anonymous, card and PayPal are gated behind sign-in; the
// caller presents the login-or-guest-COD choice instead of the form.
func (s *checkoutService) SubmitPayment(ctx context.Context) (model.CheckoutStep, error) {
	if s.draft.ActiveStep != model.StepPayment {
		return s.draft.ActiveStep, ErrInvalidTransition
	}

	if s.RequiresLogin() {
		return s.draft.ActiveStep, ErrLoginRequired
	}

	if s.draft.PaymentMethod == model.PaymentCard {
		fields := map[string]string{}
		if !validate.CardNumber(s.draft.Field("cardNumber")) {
			fields["cardNumber"] = "card number must be 16 digits"
		}
		if !validate.Required(s.draft.Field("cardHolder")) {
			fields["cardHolder"] = "required"
		}
		if !validate.CardExpiry(s.draft.Field("expiryDate")) {
			fields["expiryDate"] = "expiry must be MM/YY"
		}
		if !validate.CVV(s.draft.Field("cvv")) {
			fields["cvv"] = "CVV must be 3 or 4 digits"
		}
		if len(fields) > 0 {
			return s.draft.ActiveStep, &ValidationError{Fields: fields}
		}
	}

	s.draft.ActiveStep = model.StepReview
	s.persistDraft(ctx)
	return s.draft.ActiveStep, nil
}

// EditStep steps back from review to shipping or payment without losing
// entered data. No other backward transition exists.
func (s *checkoutService) EditStep(step model.CheckoutStep) error {
	if s.draft.ActiveStep != model.StepReview {
		return ErrInvalidTransition
	}
	switch step {
	case model.StepShipping:
	case model.StepPayment:
		if s.draft.PaymentMethod == model.PaymentCOD {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}
	s.draft.ActiveStep = step
	return nil
}

// Summary computes the review-step totals: subtotal from the cart, a flat
// shipping fee for the chosen method, and tax as a flat rate of the
// subtotal rounded to the nearest whole currency unit.
func (s *checkoutService) Summary() model.OrderSummary {
	subtotal := decimal.NewFromFloat(s.cart.TotalPrice()).Round(2)
	shipping := decimal.NewFromFloat(s.cfg.ShippingFee(string(s.draft.ShippingMethod)))
	tax := subtotal.Mul(decimal.NewFromFloat(s.cfg.TaxRate)).Round(0)
	total := subtotal.Add(shipping).Add(tax)

	return model.OrderSummary{
		Subtotal: subtotal.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// PlaceOrder submits the order from the review step. On success the cart
// and draft are cleared and the wizard lands on confirmation; on failure
// everything stays as it was and the error carries the server's message
// when one exists.
func (s *checkoutService) PlaceOrder(ctx context.Context) (string, error) {
	if s.draft.ActiveStep != model.StepReview {
		return "", ErrInvalidTransition
	}

	cart := s.cart.Cart()
	if cart.IsEmpty() {
		return "", ErrEmptyCart
	}

	loggedIn := s.session.IsLoggedIn()
	if !loggedIn && s.draft.PaymentMethod != model.PaymentCOD {
		return "", ErrLoginRequired
	}

	payload := s.buildPayload(cart)

	logger.Info("Placing order", map[string]interface{}{
		"items":  len(payload.Items),
		"total":  payload.TotalAmount,
		"guest":  !loggedIn,
		"method": s.draft.PaymentMethod,
	})

	var orderID string
	var err error
	if loggedIn {
		orderID, err = s.client.PlaceOrder(ctx, payload)
	} else {
		orderID, err = s.client.PlaceGuestOrder(ctx, payload)
	}
	if err != nil {
		// The cart and draft survive; the shopper stays on review.
		logger.Error("Order submission failed", err)
		return "", fmt.Errorf("order submission failed: %w", err)
	}

	s.orderID = orderID
	_ = s.cart.Clear(ctx)
	s.clearDraft(ctx)
	s.draft.ActiveStep = model.StepConfirmation

	logger.Info("Order placed", map[string]interface{}{
		"order_id": orderID,
	})
	return orderID, nil
}

func (s *checkoutService) OrderID() string {
	return s.orderID
}

func (s *checkoutService) buildPayload(cart model.Cart) model.OrderPayload {
	summary := s.Summary()
	deliveryDate := estimateDelivery(s.draft.ShippingMethod)

	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, model.OrderItem{
			Product:      line.ProductID,
			VariationID:  line.VariationID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			DeliveryFee:  0,
			DeliveryDate: deliveryDate,
		})
	}

	payment := model.PaymentDetails{Method: s.draft.PaymentMethod}
	if s.draft.PaymentMethod == model.PaymentCard {
		// The CVV stays client-side.
		payment.CardNumber = s.draft.Field("cardNumber")
		payment.CardHolder = s.draft.Field("cardHolder")
		payment.ExpiryDate = s.draft.Field("expiryDate")
	}

	return model.OrderPayload{
		Items: items,
		ShippingAddress: model.ShippingAddress{
			FullName: s.draft.Field("fullName"),
			Email:    s.draft.Field("email"),
			Phone:    s.draft.Field("phone"),
			Street:   s.draft.Field("street"),
			Home:     s.draft.Field("home"),
			City:     s.draft.Field("city"),
			State:    s.draft.Field("state"),
			Zip:      s.draft.Field("zip"),
			Country:  s.draft.Field("country"),
		},
		PaymentDetails: payment,
		Shipping: model.ShippingSelection{
			Method: s.draft.ShippingMethod,
			Cost:   summary.Shipping,
		},
		SubTotal:    summary.Subtotal,
		ShippingFee: summary.Shipping,
		TaxAmount:   summary.Tax,
		TotalAmount: summary.Total,
	}
}

// estimateDelivery projects the delivery date for the chosen method.
func estimateDelivery(method model.ShippingMethod) string {
	days := 5
	switch method {
	case model.ShippingExpress:
		days = 2
	case model.ShippingOvernight:
		days = 1
	}
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func (s *checkoutService) persistDraft(ctx context.Context) {
	data, err := json.Marshal(s.draft)
	if err != nil {
		logger.Error("Failed to encode checkout draft", err)
		return
	}
	envelope, err := s.box.Seal(data)
	if err != nil {
		logger.Error("Failed to seal checkout draft", err)
		return
	}
	if err := s.store.Set(ctx, storage.KeyCheckoutDraft, envelope); err != nil {
		logger.Error("Failed to persist checkout draft", err)
	}
}

func (s *checkoutService) restoreDraft(ctx context.Context) {
	envelope, err := s.store.Get(ctx, storage.KeyCheckoutDraft)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			logger.Warn("Failed to read checkout draft, starting fresh", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}

	data, err := s.box.Open(envelope)
	if err != nil {
		logger.Warn("Stored checkout draft unreadable, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	draft := model.NewCheckoutDraft()
	if err := json.Unmarshal(data, draft); err != nil {
		logger.Warn("Stored checkout draft is corrupt, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	// A restored draft always re-enters at the shipping step.
	draft.ActiveStep = model.StepShipping
	if draft.FormData == nil {
		draft.FormData = make(map[string]string)
	}
	s.draft = draft

	logger.Debug("Checkout draft restored", map[string]interface{}{
		"fields": len(draft.FormData),
	})
}

func (s *checkoutService) clearDraft(ctx context.Context) {
	s.draft = model.NewCheckoutDraft()
	if err := s.store.Delete(ctx, storage.KeyCheckoutDraft); err != nil {
		logger.Warn("Failed to clear persisted checkout draft", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
