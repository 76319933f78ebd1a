package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Preferences holds per-user settings. A row is created alongside the user
// at registration.
type Preferences struct {
	UserID           string    `json:"-"`
	DefaultPatternID *string   `json:"defaultPatternId"`
	AudioEnabled     bool      `json:"audioEnabled"`
	ReminderEnabled  bool      `json:"reminderEnabled"`
	ReminderTime     *string   `json:"reminderTime"` // "HH:MM", 24-hour
	Onboarded        bool      `json:"onboarded"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:       userID,
		AudioEnabled: true,
	}
}

// ValidReminderTime checks an "HH:MM" clock string.
func ValidReminderTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
