package usecase

import (
	"strings"
	"time"

	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/dto"
)

// Fixed thresholds for the overdue views. Per-record overrides only affect
// the sweep.
const (
	IncomingThresholdHours = 24
	OutgoingThresholdHours = 48
	ReminderCooldown       = 24 * time.Hour
)

// direction classifies a mail relative to the organisation
func (u *mailUsecase) direction(m *domain.Mail) dto.Direction {
	if u.orgName != "" && strings.EqualFold(strings.TrimSpace(m.Recipient), u.orgName) {
		return dto.DirectionIncoming
	}
	return dto.DirectionOutgoing
}

func thresholdFor(d dto.Direction) int {
	if d == dto.DirectionIncoming {
		return IncomingThresholdHours
	}
	return OutgoingThresholdHours
}

func (u *mailUsecase) OverdueSummary() (*dto.OverdueSummary, error) {
	mails, err := u.repo.FindUnresolved()
	if err != nil {
		return nil, err
	}

	now := u.now()
	summary := &dto.OverdueSummary{}
	for _, m := range mails {
		d := u.direction(m)
		if !m.PendingLongerThan(now, thresholdFor(d)) {
			continue
		}
		if d == dto.DirectionIncoming {
			summary.Incoming++
		} else {
			summary.Outgoing++
		}
	}
	summary.Total = summary.Incoming + summary.Outgoing
	return summary, nil
}

func (u *mailUsecase) OverdueMails() ([]*dto.OverdueMail, error) {
	mails, err := u.repo.FindUnresolved()
	if err != nil {
		return nil, err
	}

	now := u.now()
	result := make([]*dto.OverdueMail, 0)
	for _, m := range mails {
		d := u.direction(m)
		threshold := thresholdFor(d)
		if !m.PendingLongerThan(now, threshold) {
			continue
		}
		if m.ReminderSentAt != nil && now.Sub(*m.ReminderSentAt) < ReminderCooldown {
			continue
		}
		result = append(result, &dto.OverdueMail{
			Mail:           m,
			Direction:      d,
			ThresholdHours: threshold,
			HoursPending:   int(now.Sub(*m.DateSent).Hours()),
		})
	}
	return result, nil
}
