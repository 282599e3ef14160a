package alert

import (
	"time"

	"mailtrack-backend/internal/mail/repository"
)

// Feed exposes mails flagged within the trailing window. There is no
// backlog: a listener that polls after the window closes misses the alert.
type Feed struct {
	repo         repository.MailRepository
	window       time.Duration
	defaultHours int
	now          func() time.Time
}

func NewFeed(repo repository.MailRepository, window time.Duration, defaultHours int) *Feed {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &Feed{
		repo:         repo,
		window:       window,
		defaultHours: defaultHours,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Recent returns alerts for mails notified within the window
func (f *Feed) Recent() ([]Alert, error) {
	mails, err := f.repo.FindNotifiedSince(f.now().Add(-f.window))
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(mails))
	for _, m := range mails {
		alerts = append(alerts, FromMail(m, f.defaultHours))
	}
	return alerts, nil
}
