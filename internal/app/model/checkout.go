package model

type CheckoutStep string
type ShippingMethod string
type PaymentMethod string

const (
	StepShipping     CheckoutStep = "shipping"     // address and contact form
	StepPayment      CheckoutStep = "payment"      // payment method and card form
	StepReview       CheckoutStep = "review"       // read-only order summary
	StepConfirmation CheckoutStep = "confirmation" // terminal, shows order ID

	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"

	PaymentCard   PaymentMethod = "card"
	PaymentPaypal PaymentMethod = "paypal"
	PaymentCOD    PaymentMethod = "cod"
)

// CheckoutDraft is the in-progress checkout form, persisted on every change
// so a reload resumes where the shopper left off. The active step is
// in-memory only; a restored draft always re-enters at the shipping step.
type CheckoutDraft struct {
	FormData       map[string]string `json:"formData"`
	ShippingMethod ShippingMethod    `json:"shippingMethod"`
	PaymentMethod  PaymentMethod     `json:"paymentMethod"`
	ActiveStep     CheckoutStep      `json:"-"`
}

// NewCheckoutDraft returns an empty draft positioned at the shipping step
// with the default method selections.
func NewCheckoutDraft() *CheckoutDraft {
	return &CheckoutDraft{
		FormData:       make(map[string]string),
		ShippingMethod: ShippingStandard,
		PaymentMethod:  PaymentCard,
		ActiveStep:     StepShipping,
	}
}

// Field returns a form field value, empty if unset.
func (d CheckoutDraft) Field(name string) string {
	if d.FormData == nil {
		return ""
	}
	return d.FormData[name]
}
