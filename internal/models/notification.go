package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ChannelPreferences toggles delivery channels for one reminder category.
type ChannelPreferences struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
}

// NotificationPreferences is stored as JSONB on the users table. Missing keys decode as false.
type NotificationPreferences struct {
	Classes     ChannelPreferences `json:"classes"`
	Tests       ChannelPreferences `json:"tests"`
	Assignments ChannelPreferences `json:"assignments"`
}

// For returns the channel preferences for a reminder kind.
func (p NotificationPreferences) For(kind ReminderKind) ChannelPreferences {
	switch kind {
	case ReminderClass:
		return p.Classes
	case ReminderTest:
		return p.Tests
	case ReminderAssignment:
		return p.Assignments
	default:
		return ChannelPreferences{}
	}
}

// Value marshals preferences to JSON for persistence.
func (p NotificationPreferences) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal notification preferences: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSONB column.
func (p *NotificationPreferences) Scan(value interface{}) error {
	*p = NotificationPreferences{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for NotificationPreferences", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal notification preferences: %w", err)
	}
	return nil
}

// PushSubscription is a browser Push API subscription.
type PushSubscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"-"`
	Auth      string    `db:"auth" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubscribeRequest mirrors PushSubscription.toJSON() from the browser.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// ReminderKind is the category of a reminder.
type ReminderKind string

const (
	ReminderClass      ReminderKind = "class"
	ReminderTest       ReminderKind = "test"
	ReminderAssignment ReminderKind = "assignment"
)

// Reminder is one notification due for delivery.
type Reminder struct {
	Kind      ReminderKind  `json:"kind"`
	ItemID    string        `json:"item_id"`
	Offset    time.Duration `json:"offset"`
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	FullName  string        `json:"full_name"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	DueAt     time.Time     `json:"due_at"`
	SendEmail bool          `json:"send_email"`
	SendPush  bool          `json:"send_push"`
}

// ReminderCandidate is a row joining an upcoming item with its owner and preferences.
type ReminderCandidate struct {
	ItemID      string                  `db:"item_id"`
	Name        string                  `db:"name"`
	DueAt       time.Time               `db:"due_at"`
	SubjectCode string                  `db:"subject_code"`
	SubjectName string                  `db:"subject_name"`
	UserID      string                  `db:"user_id"`
	Email       string                  `db:"email"`
	FullName    string                  `db:"full_name"`
	Preferences NotificationPreferences `db:"notification_preferences"`
}
