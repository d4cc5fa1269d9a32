package cronjob

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adhvyk-ar/studio/internal/diag"
)

// Scheduler prunes uploaded files that outlived their retention window.
// Nothing tracks which uploads are still referenced by a project document, so
// retention is time-based only; a TTL of zero disables pruning entirely.
type Scheduler struct {
	dir    string
	ttl    time.Duration
	cron   *cron.Cron
	logger *diag.Logger
}

// NewScheduler creates a pruning scheduler for the uploads directory.
func NewScheduler(dir string, ttl time.Duration) *Scheduler {
	return &Scheduler{
		dir:    dir,
		ttl:    ttl,
		logger: diag.NewLogger("uploads-cron"),
	}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	if s.ttl <= 0 {
		s.logger.LogInfo("start", "upload pruning disabled")
		return
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@hourly", s.prune); err != nil {
		s.logger.LogError("start", err)
		return
	}

	s.logger.LogInfof("start", "pruning uploads older than %s every hour", s.ttl)
	s.cron.Start()
}

// Stop halts the scheduler, waiting for a running prune to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) prune() {
	cutoff := time.Now().Add(-s.ttl)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.LogError("prune", err)
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.LogError("prune", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.LogInfof("prune", "removed %d stale uploads", removed)
	}
}
