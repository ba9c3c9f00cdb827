package jobs

import (
	"context"
	"time"

	"agency_site_go/config"
	"agency_site_go/logging"
	"agency_site_go/services"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CleanupSessions removes expired admin sessions.
func CleanupSessions(database *gorm.DB) int64 {
	n, err := services.CleanupExpiredSessions(database)
	if err != nil {
		logging.L().Error("session cleanup failed", zap.Error(err))
		return 0
	}
	return n
}

// PurgeLeads hard-deletes archived and trashed submissions older than the
// retention window. A non-positive window disables the purge.
func PurgeLeads(database *gorm.DB, cfg *config.Config, now time.Time) int64 {
	if cfg.LeadRetentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -cfg.LeadRetentionDays)
	n, err := services.PurgeArchivedLeads(database, cutoff)
	if err != nil {
		logging.L().Error("lead purge failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		logging.L().Info("purged old leads", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}

// SendLeadDigest mails the team a summary of unhandled submissions. Nothing
// is sent when every queue is empty or no recipients are configured.
func SendLeadDigest(ctx context.Context, database *gorm.DB, cfg *config.Config, now time.Time) bool {
	if len(cfg.NotifyEmails) == 0 {
		return false
	}

	counts, err := services.CountLeads(database)
	if err != nil {
		logging.L().Error("lead digest failed", zap.Error(err))
		return false
	}

	var pending int64
	for _, c := range counts {
		pending += c.New
	}
	if pending == 0 {
		return false
	}

	email := services.BuildLeadDigestEmail(counts, cfg.NotifyEmails, cfg.SiteBaseURL+"/admin", now)
	if err := services.SendEmail(ctx, cfg, email); err != nil {
		logging.L().Error("failed to send lead digest", zap.Error(err))
		return false
	}
	logging.L().Info("lead digest sent", zap.Int64("pending", pending))
	return true
}
