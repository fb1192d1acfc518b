package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	logger := cron.PrintfLogger(log.StandardLogger())
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleSpec registers a job on a six-field cron spec (seconds first).
func (s *SchedulerService) ScheduleSpec(spec string, job func()) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return id, nil
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// Reschedule replaces an interval job, returning the new entry.
func (s *SchedulerService) Reschedule(id cron.EntryID, interval time.Duration, job func()) (cron.EntryID, error) {
	next, err := s.ScheduleInterval(interval, job)
	if err != nil {
		return id, err
	}
	if id != 0 {
		s.cron.Remove(id)
	}
	return next, nil
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}
