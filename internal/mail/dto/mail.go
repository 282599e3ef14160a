package dto

import (
	maildomain "mailtrack-backend/internal/mail/domain"
)

type MailsResponse struct {
	Mails []*maildomain.Mail `json:"mails"`
	Skip  int                `json:"skip"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
}

// CreateMailRequest is the body of POST /api/mails. DateSent accepts any
// format the upload path accepts.
type CreateMailRequest struct {
	Name                 string `json:"name"`
	Sender               string `json:"sender" binding:"required"`
	Recipient            string `json:"recipient" binding:"required"`
	Document             string `json:"document"`
	DateSent             string `json:"date_sent" binding:"required"`
	Status               string `json:"status"`
	CustomThresholdHours *int   `json:"custom_threshold_hours"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// IngestReport summarises one upload
type IngestReport struct {
	UploadedRows int `json:"uploaded_rows"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Matched      int `json:"matched"`
}

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

type OverdueSummary struct {
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
	Total    int `json:"total"`
}

type OverdueMail struct {
	*maildomain.Mail
	Direction      Direction `json:"direction"`
	ThresholdHours int       `json:"threshold_hours"`
	HoursPending   int       `json:"hours_pending"`
}
