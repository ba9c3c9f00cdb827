package jobs

import (
	"context"
	"fmt"
	"time"

	"agency_site_go/config"
	"agency_site_go/logging"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Schedule specs, evaluated in the configured timezone.
const (
	SessionCleanupSpec = "@hourly"
	LeadPurgeSpec      = "30 3 * * *"
	LeadDigestSpec     = "0 8 * * 1-5"
)

// StartScheduler registers the maintenance jobs and starts the cron runner.
// The caller stops it on shutdown.
func StartScheduler(database *gorm.DB, cfg *config.Config) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logging.L().Warn("unknown jobs timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{})))

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"session_cleanup", SessionCleanupSpec, func() { CleanupSessions(database) }},
		{"lead_purge", LeadPurgeSpec, func() { PurgeLeads(database, cfg, time.Now()) }},
	}
	if cfg.LeadDigest {
		jobs = append(jobs, struct {
			name string
			spec string
			run  func()
		}{"lead_digest", LeadDigestSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			SendLeadDigest(ctx, database, cfg, time.Now())
		}})
	}

	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, j.run); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
		logging.L().Debug("scheduled job", zap.String("job", j.name), zap.String("spec", j.spec))
	}

	c.Start()
	logging.L().Info("scheduler started", zap.String("timezone", loc.String()), zap.Int("jobs", len(jobs)))
	return c, nil
}

// cronLogger adapts zap to cron.Logger so recovered panics are logged.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
