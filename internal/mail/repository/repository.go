package repository

import (
	"mailtrack-backend/internal/mail/domain"
	"time"
)

// MailRepository defines the interface for mail record data access.
// Find* methods return (nil, nil) when nothing matches.
type MailRepository interface {
	// Create inserts a new mail, assigning an ID when empty
	Create(mail *domain.Mail) error

	// FindByID finds a mail by its ID
	FindByID(id string) (*domain.Mail, error)

	// FindExact finds the mail with exactly these parties, document and send date
	FindExact(sender, recipient, document string, dateSent *time.Time) (*domain.Mail, error)

	// FindPendingFromTo returns pending mails from sender to recipient, oldest first
	FindPendingFromTo(sender, recipient string) ([]*domain.Mail, error)

	// MaxReference returns the highest reference carrying prefix, or "" when none exist
	MaxReference(prefix string) (string, error)

	// List returns mails ordered by send date, newest first
	List(offset, limit int) ([]*domain.Mail, int64, error)

	// FindNotifiedPending returns pending mails already flagged by the sweep
	FindNotifiedPending() ([]*domain.Mail, error)

	// FindSweepCandidates returns unresolved, un-notified mails that have a send date
	FindSweepCandidates() ([]*domain.Mail, error)

	// FindUnresolved returns every non-completed mail that has a send date
	FindUnresolved() ([]*domain.Mail, error)

	// FindNotifiedSince returns mails whose notification was raised at or after since
	FindNotifiedSince(since time.Time) ([]*domain.Mail, error)

	// Update saves every field of an existing mail
	Update(mail *domain.Mail) error

	// MarkNotified sets notified and notified_at on a mail
	MarkNotified(id string, at time.Time) error

	// DeleteAll removes every mail and returns how many were deleted
	DeleteAll() (int64, error)

	// Transaction runs fn against a repository bound to a single transaction
	Transaction(fn func(repo MailRepository) error) error
}
