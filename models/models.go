package models

// AllModels lists every model migrated at startup.
func AllModels() []interface{} {
	return []interface{}{
		&AdminUser{},
		&Session{},
		&ContactMessage{},
		&ConsultationRequest{},
		&ServiceInquiry{},
		&AuditLog{},
	}
}
