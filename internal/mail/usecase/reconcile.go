package usecase

import (
	"fmt"
	"log"
	"strings"

	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/dto"
	"mailtrack-backend/internal/mail/repository"
	"mailtrack-backend/pkg/metrics"
)

type rowOutcome int

const (
	outcomeUpdated rowOutcome = iota
	outcomeCreated
	outcomeCreatedAndMatched
)

// ReconcileRows applies rows in order. Each row commits in its own
// transaction under the writer lock, so a failure leaves earlier rows
// committed. Replaying rows is safe: an already-ingested row takes the
// exact-match path and creates nothing.
func (u *mailUsecase) ReconcileRows(rows []domain.Row) (*dto.IngestReport, error) {
	report := &dto.IngestReport{}

	for i, row := range rows {
		var outcome rowOutcome
		err := u.write(func(tx repository.MailRepository) error {
			var err error
			outcome, err = u.reconcileRow(tx, row)
			return err
		})
		if err != nil {
			return report, fmt.Errorf("row %d: %w", i+1, err)
		}

		report.UploadedRows++
		switch outcome {
		case outcomeUpdated:
			report.Updated++
			metrics.IngestedRows.WithLabelValues("updated").Inc()
		case outcomeCreated:
			report.Created++
			metrics.IngestedRows.WithLabelValues("created").Inc()
		case outcomeCreatedAndMatched:
			report.Created++
			report.Matched++
			metrics.IngestedRows.WithLabelValues("created").Inc()
			metrics.RepliesMatched.Inc()
		}
	}

	return report, nil
}

func (u *mailUsecase) reconcileRow(tx repository.MailRepository, row domain.Row) (rowOutcome, error) {
	if !row.Status.Valid() {
		row.Status = domain.MailStatusPending
		row.StatusSet = false
	}

	existing, err := tx.FindExact(row.Sender, row.Recipient, row.Document, row.DateSent)
	if err != nil {
		return 0, fmt.Errorf("lookup existing mail: %w", err)
	}

	if existing != nil {
		if row.StatusSet && row.Status != existing.Status {
			existing.Status = row.Status
		}
		if row.ResponseDate != nil {
			existing.ResponseDate = row.ResponseDate
			existing.Status = domain.MailStatusCompleted
		}
		if err := tx.Update(existing); err != nil {
			return 0, fmt.Errorf("update mail %s: %w", existing.Reference, err)
		}
		return outcomeUpdated, nil
	}

	ref, err := u.nextReference(tx)
	if err != nil {
		return 0, err
	}

	mail := &domain.Mail{
		Reference:    ref,
		Name:         row.Name,
		Sender:       row.Sender,
		Recipient:    row.Recipient,
		Document:     row.Document,
		DateSent:     row.DateSent,
		Status:       row.Status,
		ResponseDate: row.ResponseDate,
	}
	if mail.Status == "" {
		mail.Status = domain.MailStatusPending
	}
	if err := tx.Create(mail); err != nil {
		return 0, fmt.Errorf("insert mail %s: %w", ref, err)
	}

	if row.ResponseDate == nil {
		return outcomeCreated, nil
	}

	matched, err := u.matchReply(tx, mail)
	if err != nil {
		return 0, err
	}
	if matched == nil {
		return outcomeCreated, nil
	}
	log.Printf("[Reconcile] %s resolved by reply %s", matched.Reference, mail.Reference)
	return outcomeCreatedAndMatched, nil
}

// matchReply resolves at most one pending mail that reply answers: the
// oldest one sent the opposite way whose document text appears inside the
// reply's document, compared case-insensitively.
func (u *mailUsecase) matchReply(tx repository.MailRepository, reply *domain.Mail) (*domain.Mail, error) {
	if reply.Document == "" {
		return nil, nil
	}

	candidates, err := tx.FindPendingFromTo(reply.Recipient, reply.Sender)
	if err != nil {
		return nil, fmt.Errorf("find reply candidates: %w", err)
	}

	replyDoc := strings.ToLower(reply.Document)
	for _, c := range candidates {
		if c.ID == reply.ID || c.Document == "" {
			continue
		}
		if !strings.Contains(replyDoc, strings.ToLower(c.Document)) {
			continue
		}

		c.Status = domain.MailStatusCompleted
		c.ResponseDate = reply.DateSent
		if c.ResponseDate == nil {
			c.ResponseDate = reply.ResponseDate
		}
		replyID := reply.ID
		c.MatchedToID = &replyID
		if err := tx.Update(c); err != nil {
			return nil, fmt.Errorf("resolve mail %s: %w", c.Reference, err)
		}
		return c, nil
	}
	return nil, nil
}

// nextReference must run inside the writer lock and the insert's transaction
func (u *mailUsecase) nextReference(tx repository.MailRepository) (string, error) {
	current, err := tx.MaxReference(u.refs.Prefix)
	if err != nil {
		return "", fmt.Errorf("read current reference: %w", err)
	}
	ref, err := u.refs.Next(current)
	if err != nil {
		return "", fmt.Errorf("generate reference: %w", err)
	}
	return ref, nil
}
