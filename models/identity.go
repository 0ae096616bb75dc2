package models

// Identity is the already-authenticated caller. Exactly one of UserID or
// SessionID selects the cart; Role is only meaningful for users.
type Identity struct {
	UserID    *int64 `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (i Identity) IsUser() bool {
	return i.UserID != nil
}

func (i Identity) IsGuest() bool {
	return i.UserID == nil && i.SessionID != ""
}
