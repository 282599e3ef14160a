package usecase

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/dto"
	"mailtrack-backend/internal/mail/repository"
	"mailtrack-backend/pkg/spreadsheet"
)

// mailUsecase implements MailUsecase
type mailUsecase struct {
	repo    repository.MailRepository
	refs    ReferenceGenerator
	orgName string
	now     func() time.Time

	// writeMu makes this process the single writer: reference allocation
	// and reply matching read then write.
	writeMu sync.Locker
}

// NewMailUsecase creates a new instance of mailUsecase
func NewMailUsecase(repo repository.MailRepository, opts Options) MailUsecase {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	writeMu := opts.WriteLock
	if writeMu == nil {
		writeMu = &sync.Mutex{}
	}
	return &mailUsecase{
		repo:    repo,
		refs:    NewReferenceGenerator(opts.ReferencePrefix),
		orgName: strings.TrimSpace(opts.OrgName),
		now:     now,
		writeMu: writeMu,
	}
}

// write runs fn in one transaction while holding the writer lock
func (u *mailUsecase) write(fn func(tx repository.MailRepository) error) error {
	u.writeMu.Lock()
	defer u.writeMu.Unlock()
	return u.repo.Transaction(fn)
}

func (u *mailUsecase) Ingest(filename string, r io.Reader) (*dto.IngestReport, error) {
	format, err := spreadsheet.DetectFormat(filename)
	if err != nil {
		return nil, ErrUnsupportedFile
	}

	raw, err := spreadsheet.Decode(format, r)
	if err != nil {
		return nil, err
	}

	return u.ReconcileRows(NormalizeRows(raw))
}

func (u *mailUsecase) ListMails(skip, limit int) ([]*domain.Mail, int64, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 200
	}
	return u.repo.List(skip, limit)
}

func (u *mailUsecase) GetMail(id string) (*domain.Mail, error) {
	mail, err := u.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if mail == nil {
		return nil, ErrNotFound
	}
	return mail, nil
}

func (u *mailUsecase) CreateMail(req dto.CreateMailRequest) (*domain.Mail, error) {
	dateSent := ParseDate(req.DateSent)
	if dateSent == nil {
		return nil, fmt.Errorf("%w: date_sent %q is not a date", ErrValidation, req.DateSent)
	}

	status := domain.MailStatusPending
	if req.Status != "" {
		status = domain.MailStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
	}
	if req.CustomThresholdHours != nil && *req.CustomThresholdHours <= 0 {
		return nil, fmt.Errorf("%w: custom_threshold_hours must be positive", ErrValidation)
	}

	mail := &domain.Mail{
		Name:                 strings.TrimSpace(req.Name),
		Sender:               strings.TrimSpace(req.Sender),
		Recipient:            strings.TrimSpace(req.Recipient),
		Document:             strings.TrimSpace(req.Document),
		DateSent:             dateSent,
		Status:               status,
		CustomThresholdHours: req.CustomThresholdHours,
	}

	err := u.write(func(tx repository.MailRepository) error {
		ref, err := u.nextReference(tx)
		if err != nil {
			return err
		}
		mail.Reference = ref
		return tx.Create(mail)
	})
	if err != nil {
		return nil, err
	}
	return mail, nil
}

func (u *mailUsecase) UpdateStatus(id, status string) (*domain.Mail, error) {
	s := domain.MailStatus(strings.ToLower(strings.TrimSpace(status)))
	if !s.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return u.mutate(id, func(m *domain.Mail) {
		m.Status = s
	})
}

func (u *mailUsecase) UpdateThreshold(id string, hours int) (*domain.Mail, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("%w: hours must be positive", ErrValidation)
	}
	return u.mutate(id, func(m *domain.Mail) {
		m.CustomThresholdHours = &hours
	})
}

func (u *mailUsecase) MarkReminderSent(id string) (*domain.Mail, error) {
	now := u.now()
	return u.mutate(id, func(m *domain.Mail) {
		m.ReminderSentAt = &now
	})
}

// mutate loads, changes and saves one mail under the writer lock
func (u *mailUsecase) mutate(id string, change func(m *domain.Mail)) (*domain.Mail, error) {
	var mail *domain.Mail
	err := u.write(func(tx repository.MailRepository) error {
		var err error
		mail, err = tx.FindByID(id)
		if err != nil {
			return err
		}
		if mail == nil {
			return ErrNotFound
		}
		change(mail)
		return tx.Update(mail)
	})
	if err != nil {
		return nil, err
	}
	return mail, nil
}

func (u *mailUsecase) DeleteAll() (int64, error) {
	var deleted int64
	err := u.write(func(tx repository.MailRepository) error {
		var err error
		deleted, err = tx.DeleteAll()
		return err
	})
	return deleted, err
}

func (u *mailUsecase) GetNotifications() ([]*domain.Mail, error) {
	return u.repo.FindNotifiedPending()
}
