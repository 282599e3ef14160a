package domain

import "time"

// MailStatus represents where a piece of correspondence is in its lifecycle
type MailStatus string

const (
	MailStatusPending   MailStatus = "pending"
	MailStatusCompleted MailStatus = "completed"
	// MailStatusOverdue is accepted on manual updates only. The overdue sweep
	// raises the Notified flag and leaves Status untouched.
	MailStatusOverdue MailStatus = "overdue"
)

// Valid reports whether s is one of the known statuses
func (s MailStatus) Valid() bool {
	switch s {
	case MailStatusPending, MailStatusCompleted, MailStatusOverdue:
		return true
	}
	return false
}

const NotificationTypeSystem = "system"

// Mail is one tracked item of physical correspondence
type Mail struct {
	ID                   string     `json:"id" gorm:"primaryKey;size:36"`
	Reference            string     `json:"reference" gorm:"uniqueIndex;size:32;not null"`
	Name                 string     `json:"name" gorm:"size:200"`
	Sender               string     `json:"sender" gorm:"size:200;index:idx_mails_parties,priority:1"`
	Recipient            string     `json:"recipient" gorm:"size:200;index:idx_mails_parties,priority:2"`
	Document             string     `json:"document" gorm:"type:text"`
	DateSent             *time.Time `json:"date_sent" gorm:"index"`
	ResponseDate         *time.Time `json:"response_date,omitempty"`
	Status               MailStatus `json:"status" gorm:"size:20;default:pending;index"`
	CustomThresholdHours *int       `json:"custom_threshold_hours,omitempty"`
	MatchedToID          *string    `json:"matched_to_id,omitempty" gorm:"size:36"` // weak reference, lookup only
	Notified             bool       `json:"notified" gorm:"default:false"`
	NotifiedAt           *time.Time `json:"notified_at,omitempty"`
	NotificationType     string     `json:"notification_type" gorm:"size:50;default:system"`
	ReminderSentAt       *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Mail) TableName() string {
	return "mails"
}

// ThresholdHours returns the per-record override, or defaultHours when unset
func (m *Mail) ThresholdHours(defaultHours int) int {
	if m.CustomThresholdHours != nil && *m.CustomThresholdHours > 0 {
		return *m.CustomThresholdHours
	}
	return defaultHours
}

// PendingLongerThan reports whether the mail was sent more than hours ago.
// A mail without a send date is never considered late.
func (m *Mail) PendingLongerThan(now time.Time, hours int) bool {
	if m.DateSent == nil {
		return false
	}
	return now.Sub(*m.DateSent) > time.Duration(hours)*time.Hour
}

// Row is the canonical shape of one ingested spreadsheet line
type Row struct {
	Name      string
	Sender    string
	Document  string
	Recipient string
	DateSent  *time.Time
	Status    MailStatus
	// StatusSet is true when the source row carried an explicit status
	StatusSet    bool
	ResponseDate *time.Time
}
