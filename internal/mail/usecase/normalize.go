package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/pkg/spreadsheet"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// Header synonyms per logical field, in preference order.
var (
	nameHeaders         = []string{"name", "title"}
	senderHeaders       = []string{"from", "sender", "sender_email"}
	recipientHeaders    = []string{"to", "recipient", "recipient_email"}
	documentHeaders     = []string{"document", "subject", "description"}
	dateSentHeaders     = []string{"date", "date_sent", "sent"}
	statusHeaders       = []string{"status"}
	responseDateHeaders = []string{"response_date", "responded", "reply_date"}
)

// excelSerial matches spreadsheet serial day numbers such as 45352 or 45352.375
var excelSerial = regexp.MustCompile(`^\d{5}(\.\d+)?$`)

// NormalizeRows maps raw spreadsheet rows onto the canonical row shape.
// Rows are never dropped; unparseable dates become nil.
func NormalizeRows(raw []spreadsheet.Row) []domain.Row {
	rows := make([]domain.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, NormalizeRow(r))
	}
	return rows
}

func NormalizeRow(r spreadsheet.Row) domain.Row {
	row := domain.Row{
		Name:         pick(r, nameHeaders),
		Sender:       pick(r, senderHeaders),
		Recipient:    pick(r, recipientHeaders),
		Document:     pick(r, documentHeaders),
		DateSent:     ParseDate(pick(r, dateSentHeaders)),
		ResponseDate: ParseDate(pick(r, responseDateHeaders)),
		Status:       domain.MailStatusPending,
	}
	// Unknown statuses count as absent so only pending, completed and
	// overdue ever reach the store.
	if status := domain.MailStatus(strings.ToLower(pick(r, statusHeaders))); status.Valid() {
		row.Status = status
		row.StatusSet = true
	}
	return row
}

// pick returns the first non-empty value among the synonym headers
func pick(r spreadsheet.Row, headers []string) string {
	for _, h := range headers {
		if v := strings.TrimSpace(r[h]); v != "" {
			return v
		}
	}
	return ""
}

// ParseDate parses free-text dates leniently and returns nil on failure.
// The result is always UTC.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "nan", "nat", "none", "null", "-":
		return nil
	}

	if excelSerial.MatchString(value) {
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				// Serial fractions carry float error; a second is the finest unit kept.
				t = t.UTC().Round(time.Second)
				return &t
			}
		}
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
