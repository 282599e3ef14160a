package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"mailtrack-backend/internal/mail/dto"
	"mailtrack-backend/internal/mail/usecase"
	"mailtrack-backend/pkg/spreadsheet"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 200

// MailHandler handles mail-tracking HTTP requests
type MailHandler struct {
	mailUsecase    usecase.MailUsecase
	maxUploadBytes int64
}

// NewMailHandler creates a new MailHandler. maxUploadBytes <= 0 disables the
// upload size limit.
func NewMailHandler(mailUsecase usecase.MailUsecase, maxUploadBytes int64) *MailHandler {
	return &MailHandler{
		mailUsecase:    mailUsecase,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload ingests a spreadsheet of mail records
// POST /api/upload (multipart field "file")
func (h *MailHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Upload failed: " + err.Error()})
		return
	}

	// Reject by name before touching the content
	if _, err := spreadsheet.DetectFormat(fileHeader.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": usecase.ErrUnsupportedFile.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed: " + err.Error()})
		return
	}
	defer file.Close()

	report, err := h.mailUsecase.Ingest(fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, usecase.ErrUnsupportedFile) || errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetMails returns a page of mails
// GET /api/mails?skip=0&limit=200
func (h *MailHandler) GetMails(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	mails, total, err := h.mailUsecase.ListMails(skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.MailsResponse{
		Mails: mails,
		Skip:  skip,
		Limit: limit,
		Total: total,
	})
}

// GetMailByID returns one mail
// GET /api/mails/:id
func (h *MailHandler) GetMailByID(c *gin.Context) {
	mail, err := h.mailUsecase.GetMail(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mail)
}

// CreateMail records a single mail
// POST /api/mails
func (h *MailHandler) CreateMail(c *gin.Context) {
	var req dto.CreateMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mail, err := h.mailUsecase.CreateMail(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mail)
}

// UpdateStatus changes a mail's status
// PATCH /api/mails/:id/status
func (h *MailHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mail, err := h.mailUsecase.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mail)
}

// UpdateDuration sets a mail's custom overdue threshold
// PUT /api/mails/:id/duration?hours=72
func (h *MailHandler) UpdateDuration(c *gin.Context) {
	hours, err := strconv.Atoi(c.Query("hours"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be an integer"})
		return
	}

	mail, err := h.mailUsecase.UpdateThreshold(c.Param("id"), hours)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mail)
}

// SendReminder records that a reminder went out for a mail
// POST /api/mails/:id/reminder
func (h *MailHandler) SendReminder(c *gin.Context) {
	mail, err := h.mailUsecase.MarkReminderSent(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mail)
}

// DeleteAll clears every mail
// DELETE /api/mails
func (h *MailHandler) DeleteAll(c *gin.Context) {
	deleted, err := h.mailUsecase.DeleteAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// GetNotifications returns pending mails already flagged as overdue
// GET /api/notifications
func (h *MailHandler) GetNotifications(c *gin.Context) {
	mails, err := h.mailUsecase.GetNotifications()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mails)
}

// GET /api/overdue/summary
func (h *MailHandler) GetOverdueSummary(c *gin.Context) {
	summary, err := h.mailUsecase.OverdueSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/overdue
func (h *MailHandler) GetOverdueMails(c *gin.Context) {
	mails, err := h.mailUsecase.OverdueMails()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mails)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Mail not found"})
	case errors.Is(err, usecase.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
