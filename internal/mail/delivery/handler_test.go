package delivery

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/dto"
	"mailtrack-backend/internal/mail/repository"
	"mailtrack-backend/internal/mail/usecase"
	"mailtrack-backend/internal/testutil"

	"github.com/gin-gonic/gin"
)

var handlerNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*gin.Engine, repository.MailRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewGormMailRepository(testutil.NewTestDB(t))
	uc := usecase.NewMailUsecase(repo, usecase.Options{
		ReferencePrefix: "EKSU",
		OrgName:         "EKSU",
		Now:             func() time.Time { return handlerNow },
	})
	h := NewMailHandler(uc, 1<<20)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/upload", h.Upload)
	api.GET("/mails", h.GetMails)
	api.POST("/mails", h.CreateMail)
	api.DELETE("/mails", h.DeleteAll)
	api.GET("/mails/:id", h.GetMailByID)
	api.PATCH("/mails/:id/status", h.UpdateStatus)
	api.PUT("/mails/:id/duration", h.UpdateDuration)
	api.POST("/mails/:id/reminder", h.SendReminder)
	api.GET("/notifications", h.GetNotifications)
	api.GET("/overdue/summary", h.GetOverdueSummary)
	api.GET("/overdue", h.GetOverdueMails)
	return r, repo
}

func do(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, r http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()
	return do(r, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestUpload_RejectsNonSpreadsheet(t *testing.T) {
	r, repo := newTestRouter(t)

	w := upload(t, r, "notes.txt", "sender,recipient\nA,B\n")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), ".xlsx or .csv") {
		t.Errorf("body = %s", w.Body.String())
	}
	if _, total, _ := repo.List(0, 10); total != 0 {
		t.Errorf("store has %d rows after rejected upload", total)
	}
}

func TestUpload_CSVThenList(t *testing.T) {
	r, _ := newTestRouter(t)

	csv := "From,To,Subject,Date,Status\n" +
		"Registry,Bursary,Invoice 12,2024-03-01 09:00,pending\n" +
		"Senate,EKSU,Minutes,2024-03-09 08:00,\n"
	w := upload(t, r, "batch.CSV", csv)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}
	report := decode[dto.IngestReport](t, w)
	if report.UploadedRows != 2 || report.Created != 2 {
		t.Errorf("report = %+v", report)
	}

	w = do(r, http.MethodGet, "/api/mails?limit=1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	page := decode[dto.MailsResponse](t, w)
	if page.Total != 2 || len(page.Mails) != 1 || page.Limit != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Mails[0].Document != "Minutes" {
		t.Errorf("first mail = %q, want newest send date first", page.Mails[0].Document)
	}
}

func TestMailLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/mails",
		strings.NewReader(`{"sender":"Registry","recipient":"Bursary","document":"Invoice","date_sent":"2024-03-07 10:00"}`),
		"application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	created := decode[domain.Mail](t, w)
	if created.Reference != "EKSU-0001" || created.Status != domain.MailStatusPending {
		t.Fatalf("created = %+v", created)
	}

	w = do(r, http.MethodGet, "/api/mails/"+created.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	w = do(r, http.MethodPut, "/api/mails/"+created.ID+"/duration?hours=72", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("duration status = %d: %s", w.Code, w.Body.String())
	}
	if m := decode[domain.Mail](t, w); m.CustomThresholdHours == nil || *m.CustomThresholdHours != 72 {
		t.Errorf("threshold = %v", m.CustomThresholdHours)
	}

	w = do(r, http.MethodPatch, "/api/mails/"+created.ID+"/status", strings.NewReader(`{"status":"Completed"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status update = %d: %s", w.Code, w.Body.String())
	}
	if m := decode[domain.Mail](t, w); m.Status != domain.MailStatusCompleted {
		t.Errorf("status = %s", m.Status)
	}

	w = do(r, http.MethodPost, "/api/mails/"+created.ID+"/reminder", nil, "")
	if m := decode[domain.Mail](t, w); w.Code != http.StatusOK || m.ReminderSentAt == nil || !m.ReminderSentAt.Equal(handlerNow) {
		t.Errorf("reminder = %d %+v", w.Code, m.ReminderSentAt)
	}

	w = do(r, http.MethodDelete, "/api/mails", nil, "")
	if got := decode[map[string]int64](t, w); got["deleted"] != 1 {
		t.Errorf("deleted = %v", got)
	}
	page := decode[dto.MailsResponse](t, do(r, http.MethodGet, "/api/mails", nil, ""))
	if page.Total != 0 || len(page.Mails) != 0 {
		t.Errorf("after delete page = %+v", page)
	}
}

func TestErrorMapping(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing mail", http.MethodGet, "/api/mails/nope", "", http.StatusNotFound},
		{"status on missing mail", http.MethodPatch, "/api/mails/nope/status", `{"status":"completed"}`, http.StatusNotFound},
		{"reminder on missing mail", http.MethodPost, "/api/mails/nope/reminder", "", http.StatusNotFound},
		{"non-numeric hours", http.MethodPut, "/api/mails/nope/duration?hours=soon", "", http.StatusBadRequest},
		{"missing date_sent", http.MethodPost, "/api/mails", `{"sender":"A","recipient":"B"}`, http.StatusBadRequest},
		{"unparseable date_sent", http.MethodPost, "/api/mails", `{"sender":"A","recipient":"B","date_sent":"someday"}`, http.StatusBadRequest},
		{"unknown status", http.MethodPost, "/api/mails", `{"sender":"A","recipient":"B","date_sent":"2024-01-01","status":"lost"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			w := do(r, tc.method, tc.path, body, "application/json")
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestOverdueEndpoints(t *testing.T) {
	r, repo := newTestRouter(t)

	sent := func(h int) *time.Time {
		ts := handlerNow.Add(-time.Duration(h) * time.Hour)
		return &ts
	}
	reminded := handlerNow.Add(-2 * time.Hour)
	seed := []*domain.Mail{
		{Reference: "EKSU-0001", Sender: "Senate", Recipient: "eksu", DateSent: sent(30)},                           // incoming, overdue
		{Reference: "EKSU-0002", Sender: "EKSU", Recipient: "Bursary", DateSent: sent(30)},                          // outgoing, not yet
		{Reference: "EKSU-0003", Sender: "EKSU", Recipient: "Bursary", DateSent: sent(60)},                          // outgoing, overdue
		{Reference: "EKSU-0004", Sender: "EKSU", Recipient: "Works", DateSent: sent(60), ReminderSentAt: &reminded}, // reminded recently
		{Reference: "EKSU-0005", Sender: "EKSU", Recipient: "Works", DateSent: sent(90), Status: domain.MailStatusCompleted},
	}
	for _, m := range seed {
		if err := repo.Create(m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	summary := decode[dto.OverdueSummary](t, do(r, http.MethodGet, "/api/overdue/summary", nil, ""))
	if summary.Incoming != 1 || summary.Outgoing != 2 || summary.Total != 3 {
		t.Errorf("summary = %+v", summary)
	}

	list := decode[[]dto.OverdueMail](t, do(r, http.MethodGet, "/api/overdue", nil, ""))
	refs := map[string]dto.Direction{}
	for _, m := range list {
		refs[m.Reference] = m.Direction
	}
	if len(refs) != 2 || refs["EKSU-0001"] != dto.DirectionIncoming || refs["EKSU-0003"] != dto.DirectionOutgoing {
		t.Errorf("overdue list = %v", refs)
	}

	notified := decode[[]domain.Mail](t, do(r, http.MethodGet, "/api/notifications", nil, ""))
	if len(notified) != 0 {
		t.Errorf("notifications before any sweep = %d", len(notified))
	}
}
