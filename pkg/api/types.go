package api

import (
	"github.com/seonmall/storefront/internal/app/model"
)

// SignInRequest is the credential payload for POST /auth/sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the registration payload for POST /auth/sign-up.
type SignUpRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Address     string `json:"address,omitempty"`
}

// AuthResponse is returned by sign-in and sign-up.
type AuthResponse struct {
	User        *model.UserProfile `json:"user"`
	AccessToken string             `json:"accessToken"`
}

// RefreshResponse is returned by POST /auth/refresh-token. ExpiresIn is the
// access token lifetime in seconds; zero means the server omitted it.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// orderResponse accepts both order-endpoint response shapes:
// {"order":{"_id":...}} from the member endpoint and {"orderId":...} from
// guest checkout.
type orderResponse struct {
	Order *struct {
		ID string `json:"_id"`
	} `json:"order"`
	OrderID string `json:"orderId"`
}

func (r *orderResponse) id() string {
	if r.Order != nil && r.Order.ID != "" {
		return r.Order.ID
	}
	return r.OrderID
}

// ProductFilter narrows a catalog search. Zero values are omitted.
type ProductFilter struct {
	Query    string
	Category string
	MinPrice float64
	MaxPrice float64
	Page     int
	Limit    int
}
