package model

// OrderItem is one purchased line inside an order payload.
type OrderItem struct {
	Product      string  `json:"product"`
	VariationID  *string `json:"variationId"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	DeliveryFee  float64 `json:"deliveryFee"`
	DeliveryDate string  `json:"deliveryDate,omitempty"`
}

// ShippingAddress is the destination block of an order payload.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Home     string `json:"home,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// PaymentDetails carries the chosen method. Card fields are present only
// when the method is card; the CVV is never transmitted.
type PaymentDetails struct {
	Method     PaymentMethod `json:"method"`
	CardNumber string        `json:"cardNumber,omitempty"`
	CardHolder string        `json:"cardHolder,omitempty"`
	ExpiryDate string        `json:"expiryDate,omitempty"`
}

// ShippingSelection is the chosen delivery method and its flat fee.
type ShippingSelection struct {
	Method ShippingMethod `json:"method"`
	Cost   float64        `json:"cost"`
}

// OrderPayload is the request body posted to the order endpoints.
type OrderPayload struct {
	Items           []OrderItem       `json:"items"`
	ShippingAddress ShippingAddress   `json:"shippingAddress"`
	PaymentDetails  PaymentDetails    `json:"paymentDetails"`
	Shipping        ShippingSelection `json:"shipping"`
	SubTotal        float64           `json:"subTotal"`
	ShippingFee     float64           `json:"shippingFee"`
	TaxAmount       float64           `json:"taxAmount"`
	TotalAmount     float64           `json:"totalAmount"`
}

// OrderSummary is the computed totals shown on the review step.
type OrderSummary struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}
