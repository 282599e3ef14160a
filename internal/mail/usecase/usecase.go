package usecase

import (
	"io"
	"sync"
	"time"

	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/dto"
)

// MailUsecase defines the mail tracking business logic
type MailUsecase interface {
	// Ingest decodes an uploaded spreadsheet and reconciles its rows.
	// Unsupported file names are rejected before r is read.
	Ingest(filename string, r io.Reader) (*dto.IngestReport, error)

	// ReconcileRows applies already-normalized rows in order
	ReconcileRows(rows []domain.Row) (*dto.IngestReport, error)

	// ListMails returns a page of mails, newest send date first
	ListMails(skip, limit int) ([]*domain.Mail, int64, error)

	// GetMail returns one mail or ErrNotFound
	GetMail(id string) (*domain.Mail, error)

	// CreateMail records a single mail and assigns its reference
	CreateMail(req dto.CreateMailRequest) (*domain.Mail, error)

	// UpdateStatus sets a mail's status
	UpdateStatus(id, status string) (*domain.Mail, error)

	// UpdateThreshold sets a mail's custom overdue threshold in hours
	UpdateThreshold(id string, hours int) (*domain.Mail, error)

	// MarkReminderSent stamps reminder_sent_at with the current time
	MarkReminderSent(id string) (*domain.Mail, error)

	// DeleteAll removes every mail
	DeleteAll() (int64, error)

	// GetNotifications returns pending mails the sweep already flagged
	GetNotifications() ([]*domain.Mail, error)

	// OverdueSummary counts overdue incoming and outgoing mails using the
	// fixed per-direction thresholds
	OverdueSummary() (*dto.OverdueSummary, error)

	// OverdueMails lists overdue mails, skipping those reminded recently
	OverdueMails() ([]*dto.OverdueMail, error)
}

// Options configures the mail usecase
type Options struct {
	ReferencePrefix string
	// OrgName identifies incoming mail: a mail addressed to it is incoming
	OrgName string
	// WriteLock is shared with the overdue sweep; nil gives the usecase its own
	WriteLock sync.Locker
	// Now overrides the clock in tests
	Now func() time.Time
}
