package repository

import (
	"errors"
	"mailtrack-backend/internal/mail/domain"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormMailRepository implements MailRepository using GORM
type gormMailRepository struct {
	db *gorm.DB
}

// NewGormMailRepository creates a new GORM-based MailRepository.
// The schema is owned by the migrations in pkg/database.
func NewGormMailRepository(db *gorm.DB) MailRepository {
	return &gormMailRepository{db: db}
}

func (r *gormMailRepository) Create(mail *domain.Mail) error {
	if mail.ID == "" {
		mail.ID = uuid.New().String()
	}
	if mail.Status == "" {
		mail.Status = domain.MailStatusPending
	}
	if mail.NotificationType == "" {
		mail.NotificationType = domain.NotificationTypeSystem
	}
	now := time.Now().UTC()
	mail.CreatedAt = now
	mail.UpdatedAt = now
	return r.db.Create(mail).Error
}

func (r *gormMailRepository) FindByID(id string) (*domain.Mail, error) {
	return r.first(r.db.Where("id = ?", id))
}

func (r *gormMailRepository) FindExact(sender, recipient, document string, dateSent *time.Time) (*domain.Mail, error) {
	query := r.db.Where("sender = ? AND recipient = ? AND document = ?", sender, recipient, document)
	if dateSent == nil {
		query = query.Where("date_sent IS NULL")
	} else {
		query = query.Where("date_sent = ?", dateSent.UTC())
	}
	return r.first(query.Order("created_at ASC"))
}

func (r *gormMailRepository) FindPendingFromTo(sender, recipient string) ([]*domain.Mail, error) {
	var mails []*domain.Mail
	err := r.db.Where("sender = ? AND recipient = ? AND status = ?", sender, recipient, domain.MailStatusPending).
		Order("CASE WHEN date_sent IS NULL THEN 1 ELSE 0 END, date_sent ASC, created_at ASC").
		Find(&mails).Error
	return mails, err
}

func (r *gormMailRepository) MaxReference(prefix string) (string, error) {
	var refs []string
	// Longer references carry more digits, so length sorts before text.
	err := r.db.Model(&domain.Mail{}).
		Where("reference LIKE ?", prefix+"-%").
		Order("LENGTH(reference) DESC, reference DESC").
		Limit(1).
		Pluck("reference", &refs).Error
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", nil
	}
	return refs[0], nil
}

func (r *gormMailRepository) List(offset, limit int) ([]*domain.Mail, int64, error) {
	var mails []*domain.Mail
	var total int64

	if err := r.db.Model(&domain.Mail{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("CASE WHEN date_sent IS NULL THEN 1 ELSE 0 END, date_sent DESC, created_at DESC").
		Limit(limit).Offset(offset).Find(&mails).Error
	return mails, total, err
}

func (r *gormMailRepository) FindNotifiedPending() ([]*domain.Mail, error) {
	var mails []*domain.Mail
	err := r.db.Where("notified = ? AND status = ?", true, domain.MailStatusPending).
		Order("date_sent DESC").Find(&mails).Error
	return mails, err
}

func (r *gormMailRepository) FindSweepCandidates() ([]*domain.Mail, error) {
	var mails []*domain.Mail
	err := r.db.Where("status <> ? AND notified = ? AND date_sent IS NOT NULL",
		domain.MailStatusCompleted, false).
		Order("date_sent ASC").Find(&mails).Error
	return mails, err
}

func (r *gormMailRepository) FindUnresolved() ([]*domain.Mail, error) {
	var mails []*domain.Mail
	err := r.db.Where("status <> ? AND date_sent IS NOT NULL", domain.MailStatusCompleted).
		Order("date_sent ASC").Find(&mails).Error
	return mails, err
}

func (r *gormMailRepository) FindNotifiedSince(since time.Time) ([]*domain.Mail, error) {
	var mails []*domain.Mail
	err := r.db.Where("notified = ? AND notified_at >= ?", true, since.UTC()).
		Order("notified_at ASC").Find(&mails).Error
	return mails, err
}

func (r *gormMailRepository) Update(mail *domain.Mail) error {
	mail.UpdatedAt = time.Now().UTC()
	return r.db.Save(mail).Error
}

func (r *gormMailRepository) MarkNotified(id string, at time.Time) error {
	return r.db.Model(&domain.Mail{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"notified":    true,
			"notified_at": at.UTC(),
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *gormMailRepository) DeleteAll() (int64, error) {
	result := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Mail{})
	return result.RowsAffected, result.Error
}

func (r *gormMailRepository) Transaction(fn func(repo MailRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormMailRepository{db: tx})
	})
}

func (r *gormMailRepository) first(query *gorm.DB) (*domain.Mail, error) {
	var mail domain.Mail
	err := query.First(&mail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mail, nil
}
