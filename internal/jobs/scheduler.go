// Package jobs runs the background work on a cron schedule: purging
// expired sessions and old login attempts, and the morning lead digest.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/leads"
)

// attemptRetention is how long login attempts stay in the audit table.
const attemptRetention = 90 * 24 * time.Hour

// SessionPurger is implemented by auth.Service.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
	PurgeLoginAttempts(ctx context.Context, retention time.Duration) (int64, error)
}

// LeadSource is implemented by leads.Service.
type LeadSource interface {
	CreatedBetween(ctx context.Context, from, to time.Time) ([]*leads.Lead, error)
}

// DigestSender is implemented by notify.Telegram.
type DigestSender interface {
	Digest(ctx context.Context, day time.Time, items []*leads.Lead) error
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionPurger
	leads    LeadSource
	digest   DigestSender // nil disables the digest
	now      func() time.Time
}

// NewScheduler creates a scheduler in the agency's time zone.
func NewScheduler(sessions SessionPurger, leadSource LeadSource, digest DigestSender) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(common.Location())),
		sessions: sessions,
		leads:    leadSource,
		digest:   digest,
		now:      common.LocalNow,
	}
}

type job struct {
	spec string
	name string
	fn   func(context.Context) error
}

// Start registers the jobs and starts the runner. ctx is handed to every
// job run and should live until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []job{
		{"5 * * * *", "purge sessions", s.PurgeSessions},
		{"30 3 * * *", "purge login attempts", s.PurgeAttempts},
	}
	if s.digest != nil {
		jobs = append(jobs, job{"0 8 * * *", "lead digest", s.SendDigest})
	}

	for _, j := range jobs {
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() {
			if err := j.fn(ctx); err != nil {
				log.WithFields(log.Fields{"component": "jobs", "job": j.name}).WithError(err).Error("Job failed")
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{"component": "jobs", "jobs": len(jobs)}).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.WithField("component", "jobs").Info("Scheduler stopped")
}

// PurgeSessions deletes expired sessions.
func (s *Scheduler) PurgeSessions(ctx context.Context) error {
	n, err := s.sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.WithFields(log.Fields{"component": "jobs", "deleted": n}).Info("Expired sessions purged")
	}
	return nil
}

// PurgeAttempts drops login attempts older than the retention period.
func (s *Scheduler) PurgeAttempts(ctx context.Context) error {
	n, err := s.sessions.PurgeLoginAttempts(ctx, attemptRetention)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"component": "jobs", "deleted": n}).Info("Old login attempts purged")
	return nil
}

// SendDigest reports yesterday's leads.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	if s.digest == nil {
		return nil
	}
	today := common.StartOfDay(s.now())
	yesterday := today.AddDate(0, 0, -1)

	items, err := s.leads.CreatedBetween(ctx, yesterday, today)
	if err != nil {
		return err
	}
	return s.digest.Digest(ctx, yesterday, items)
}
