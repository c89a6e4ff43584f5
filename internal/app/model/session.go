package model

type SessionState string

const (
	SessionAnonymous      SessionState = "anonymous"      // no token held
	SessionAuthenticating SessionState = "authenticating" // silent refresh in flight
	SessionAuthenticated  SessionState = "authenticated"  // token held, refresh scheduled
)

// UserProfile is the authenticated user as reported by the API.
type UserProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address,omitempty"`
}
