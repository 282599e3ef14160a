package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"mailtrack-backend/internal/alert"
	"mailtrack-backend/internal/mail/domain"
	"mailtrack-backend/internal/mail/repository"
	"mailtrack-backend/pkg/metrics"
)

// Lease lets only one replica sweep per interval
type Lease interface {
	TryAcquire(ctx context.Context) (bool, error)
}

// Options configures the overdue scheduler
type Options struct {
	Interval              time.Duration
	DefaultThresholdHours int
	// WriteLock is shared with the mail usecase so sweeps never interleave
	// with ingestion writes.
	WriteLock sync.Locker
	// Lease is optional; nil means this process always sweeps.
	Lease Lease
	Now   func() time.Time
}

// OverdueScheduler flags mails pending past their threshold and raises one
// alert per mail. It never changes a mail's status.
type OverdueScheduler struct {
	repo     repository.MailRepository
	notifier alert.Notifier
	opts     Options
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewOverdueScheduler creates a new scheduler
func NewOverdueScheduler(repo repository.MailRepository, notifier alert.Notifier, opts Options) *OverdueScheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.DefaultThresholdHours <= 0 {
		opts.DefaultThresholdHours = 48
	}
	if opts.WriteLock == nil {
		opts.WriteLock = &sync.Mutex{}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if notifier == nil {
		notifier = alert.LogNotifier{}
	}
	return &OverdueScheduler{
		repo:     repo,
		notifier: notifier,
		opts:     opts,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop. Only the first call has any effect.
func (s *OverdueScheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[MailScheduler] Starting overdue sweep (interval: %s, default threshold: %dh)",
		s.opts.Interval, s.opts.DefaultThresholdHours)

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.runSweep(ctx)

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runSweep(ctx)
			case <-ctx.Done():
				log.Println("[MailScheduler] Context cancelled, scheduler stopped")
				return
			case <-s.stopChan:
				log.Println("[MailScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler and waits for the running sweep.
// Stopping a scheduler that was never started returns immediately.
func (s *OverdueScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *OverdueScheduler) runSweep(ctx context.Context) {
	alerts, err := s.Sweep(ctx)
	if err != nil {
		metrics.SweepErrors.Inc()
		log.Printf("[MailScheduler] Sweep failed: %v", err)
		return
	}
	if len(alerts) > 0 {
		log.Printf("[MailScheduler] Flagged %d overdue mails", len(alerts))
	}
}

// Sweep runs one pass. All flags commit in a single transaction before any
// alert is sent, so a failed sweep raises no alerts.
func (s *OverdueScheduler) Sweep(ctx context.Context) ([]alert.Alert, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	if s.opts.Lease != nil {
		ok, err := s.opts.Lease.TryAcquire(ctx)
		switch {
		case err != nil:
			// A Redis outage degrades to the single-replica behaviour
			log.Printf("[MailScheduler] Lease unavailable, sweeping without it: %v", err)
		case !ok:
			log.Println("[MailScheduler] Another replica holds the sweep lease, skipping")
			return nil, nil
		}
	}

	flagged, err := s.flagOverdue()
	if err != nil {
		return nil, err
	}

	alerts := make([]alert.Alert, 0, len(flagged))
	for _, m := range flagged {
		a := alert.FromMail(m, s.opts.DefaultThresholdHours)
		alerts = append(alerts, a)
		metrics.OverdueAlerts.Inc()

		if err := s.notifier.Notify(ctx, a); err != nil {
			log.Printf("[MailScheduler] Error delivering alert for %s: %v", m.Reference, err)
		}
	}
	return alerts, nil
}

func (s *OverdueScheduler) flagOverdue() ([]*domain.Mail, error) {
	s.opts.WriteLock.Lock()
	defer s.opts.WriteLock.Unlock()

	now := s.opts.Now()
	var flagged []*domain.Mail

	err := s.repo.Transaction(func(tx repository.MailRepository) error {
		candidates, err := tx.FindSweepCandidates()
		if err != nil {
			return err
		}
		for _, m := range candidates {
			if !m.PendingLongerThan(now, m.ThresholdHours(s.opts.DefaultThresholdHours)) {
				continue
			}
			if err := tx.MarkNotified(m.ID, now); err != nil {
				return err
			}
			notifiedAt := now
			m.Notified = true
			m.NotifiedAt = &notifiedAt
			flagged = append(flagged, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flagged, nil
}
