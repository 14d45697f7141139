package feedback

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	// StatusAdminSent marks messages the admin initiated, as opposed to
	// replies on a user's feedback.
	StatusAdminSent Status = "admin_sent"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessed, StatusAdminSent:
		return true
	}
	return false
}

type Feedback struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	Message    string    `json:"message"`
	AdminReply *string   `json:"admin_reply"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserRef is a row in the admin's conversation list.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
