package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mailtrack-backend/internal/alert"
	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/repository"
	"mailtrack-backend/internal/testutil"
)

var sweepNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (n *recordingNotifier) Notify(_ context.Context, a alert.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type stubLease struct {
	ok  bool
	err error
}

func (l stubLease) TryAcquire(context.Context) (bool, error) { return l.ok, l.err }

func newTestScheduler(t *testing.T, lease Lease) (*OverdueScheduler, repository.MailRepository, *recordingNotifier) {
	t.Helper()
	repo := repository.NewGormMailRepository(testutil.NewTestDB(t))
	notifier := &recordingNotifier{}
	s := NewOverdueScheduler(repo, notifier, Options{
		Interval:              time.Hour,
		DefaultThresholdHours: 48,
		Lease:                 lease,
		Now:                   func() time.Time { return sweepNow },
	})
	return s, repo, notifier
}

func seed(t *testing.T, repo repository.MailRepository, ref string, sentHoursAgo int, status domain.MailStatus, threshold *int) *domain.Mail {
	t.Helper()
	sent := sweepNow.Add(-time.Duration(sentHoursAgo) * time.Hour)
	m := &domain.Mail{
		Reference: ref, Sender: "Registry", Recipient: "Bursary",
		DateSent: &sent, Status: status, CustomThresholdHours: threshold,
	}
	if err := repo.Create(m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return m
}

func TestSweep_FlagsOnlyMailsPastThreshold(t *testing.T) {
	s, repo, notifier := newTestScheduler(t, nil)

	late := seed(t, repo, "EKSU-0001", 49, domain.MailStatusPending, nil)
	fresh := seed(t, repo, "EKSU-0002", 10, domain.MailStatusPending, nil)

	alerts, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Ref != "EKSU-0001" {
		t.Fatalf("alerts = %+v, want only EKSU-0001", alerts)
	}
	if notifier.count() != 1 {
		t.Errorf("notifier got %d alerts, want 1", notifier.count())
	}

	got, _ := repo.FindByID(late.ID)
	if !got.Notified || got.NotifiedAt == nil || !got.NotifiedAt.Equal(sweepNow) {
		t.Errorf("late mail = notified %v at %v", got.Notified, got.NotifiedAt)
	}
	if got.Status != domain.MailStatusPending {
		t.Errorf("status = %s, sweep must leave status alone", got.Status)
	}

	got, _ = repo.FindByID(fresh.ID)
	if got.Notified {
		t.Error("fresh mail should not be flagged")
	}
}

func TestSweep_SecondPassRaisesNoDuplicate(t *testing.T) {
	s, repo, notifier := newTestScheduler(t, nil)
	seed(t, repo, "EKSU-0001", 72, domain.MailStatusPending, nil)

	if _, err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}
	alerts, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if len(alerts) != 0 || notifier.count() != 1 {
		t.Errorf("second sweep alerts = %d, total notified = %d; want 0 and 1", len(alerts), notifier.count())
	}
}

func TestSweep_HonorsCustomThreshold(t *testing.T) {
	s, repo, _ := newTestScheduler(t, nil)
	short, long := 6, 100
	seed(t, repo, "EKSU-0001", 10, domain.MailStatusPending, &short)
	seed(t, repo, "EKSU-0002", 60, domain.MailStatusPending, &long)

	alerts, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Ref != "EKSU-0001" {
		t.Fatalf("alerts = %+v, want only EKSU-0001", alerts)
	}
	want := "Mail EKSU-0001 from Registry to Bursary has not been attended to in 6 hours."
	if alerts[0].Message != want {
		t.Errorf("Message = %q, want %q", alerts[0].Message, want)
	}
}

func TestSweep_SkipsCompletedAndUndated(t *testing.T) {
	s, repo, _ := newTestScheduler(t, nil)
	seed(t, repo, "EKSU-0001", 100, domain.MailStatusCompleted, nil)
	if err := repo.Create(&domain.Mail{Reference: "EKSU-0002", Sender: "Senate", Recipient: "Registry"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	alerts, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts = %+v, want none", alerts)
	}
}

func TestSweep_RespectsLease(t *testing.T) {
	s, repo, notifier := newTestScheduler(t, stubLease{ok: false})
	m := seed(t, repo, "EKSU-0001", 72, domain.MailStatusPending, nil)

	alerts, err := s.Sweep(context.Background())
	if err != nil || len(alerts) != 0 || notifier.count() != 0 {
		t.Fatalf("Sweep without lease = %v, %v; want no alerts", alerts, err)
	}
	if got, _ := repo.FindByID(m.ID); got.Notified {
		t.Error("mail flagged by a replica that did not hold the lease")
	}
}

func TestSweep_LeaseErrorStillSweeps(t *testing.T) {
	s, repo, notifier := newTestScheduler(t, stubLease{err: errors.New("redis down")})
	m := seed(t, repo, "EKSU-0001", 72, domain.MailStatusPending, nil)

	alerts, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(alerts) != 1 || notifier.count() != 1 {
		t.Errorf("alerts = %d, notified = %d; want 1 each while Redis is down", len(alerts), notifier.count())
	}
	if got, _ := repo.FindByID(m.ID); !got.Notified {
		t.Error("mail not flagged during lease outage")
	}
}

func TestStop_WithoutStartReturns(t *testing.T) {
	s, _, _ := newTestScheduler(t, nil)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a scheduler that was never started")
	}
}

func TestStartStop_RunsImmediately(t *testing.T) {
	s, repo, notifier := newTestScheduler(t, nil)
	seed(t, repo, "EKSU-0001", 72, domain.MailStatusPending, nil)

	s.Start(context.Background())
	deadline := time.Now().Add(5 * time.Second)
	for notifier.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if notifier.count() != 1 {
		t.Errorf("notified %d, want 1 from the startup sweep", notifier.count())
	}
}
