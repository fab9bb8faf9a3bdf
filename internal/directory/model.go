package directory

// Provider is the therapist profile as seen by the scheduling engine. Profile
// management itself (bios, photos, approval flow) lives outside this service.
type Provider struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	DisplayName      string  `json:"display_name"`
	Email            string  `json:"email"`
	SessionDuration  int     `json:"session_duration"`   // minutes, default offering
	BaseSessionPrice float64 `json:"base_session_price"` // default offering
}

// Client is the booking party.
type Client struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Offering is a named session type a provider sells, with its own duration
// and price. Price and duration are captured onto the appointment at booking
// time; later edits never rewrite history.
type Offering struct {
	ID         string  `json:"id"`
	ProviderID string  `json:"provider_id"`
	Name       string  `json:"name"`
	Duration   int     `json:"duration"` // minutes
	Price      float64 `json:"price"`
}
