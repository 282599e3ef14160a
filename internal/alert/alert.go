// Package alert turns overdue mails into alerts, fans them out to push
// channels and serves the rolling alert feed to WebSocket listeners.
package alert

import (
	"fmt"
	"time"

	"mailtrack-backend/internal/mail/domain"
)

// Alert is the message delivered for one overdue mail
type Alert struct {
	Ref     string `json:"ref"`
	Message string `json:"message"`
	Time    string `json:"time,omitempty"`
}

// FromMail builds the alert for a flagged mail
func FromMail(m *domain.Mail, defaultHours int) Alert {
	a := Alert{
		Ref: m.Reference,
		Message: fmt.Sprintf("Mail %s from %s to %s has not been attended to in %d hours.",
			m.Reference, m.Sender, m.Recipient, m.ThresholdHours(defaultHours)),
	}
	if m.NotifiedAt != nil {
		a.Time = m.NotifiedAt.UTC().Format(time.RFC3339)
	}
	return a
}
