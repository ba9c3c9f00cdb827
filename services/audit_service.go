package services

import (
	"encoding/json"
	"fmt"

	"agency_site_go/logging"
	"agency_site_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditContext identifies who performed an operation and from where.
type AuditContext struct {
	UserID    string
	UserName  string
	IPAddress string
	UserAgent string
}

// AuditEntry describes one operation to record.
type AuditEntry struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	ResourceName string
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// LogAuditEvent records an operation. Failures are logged and never
// reach the caller, the operation itself already succeeded.
func LogAuditEvent(db *gorm.DB, actx AuditContext, entry AuditEntry) {
	auditLog := models.AuditLog{
		UserID:       ptrIfNotEmpty(actx.UserID),
		UserName:     actx.UserName,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		Description:  entry.Description,
		OldValues:    marshalAuditValues(entry.OldValues),
		NewValues:    marshalAuditValues(entry.NewValues),
		IPAddress:    actx.IPAddress,
		UserAgent:    actx.UserAgent,
	}
	if err := db.Create(&auditLog).Error; err != nil {
		logging.L().Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err))
	}
}

func marshalAuditValues(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetResourceAuditHistory returns the entries for one resource, newest first.
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audit history: %w", err)
	}
	return logs, nil
}

// LogSecurityEvent writes a security event to the log and, when db is
// set, to the audit trail.
func LogSecurityEvent(db *gorm.DB, eventType, userID, details string) {
	logging.L().Warn("security event",
		zap.String("event", eventType),
		zap.String("user_id", userID),
		zap.String("details", details),
	)
	if db == nil {
		return
	}
	LogAuditEvent(db, AuditContext{UserID: userID}, AuditEntry{
		Action:       models.AuditActionSecurity,
		ResourceType: "security",
		ResourceID:   eventType,
		Description:  details,
	})
}
