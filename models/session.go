package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxSessionUserAgent caps the user agent kept with an admin session.
const MaxSessionUserAgent = 512

// Session is a signed-in admin. The token only travels in the session
// cookie and is never serialized.
type Session struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null;type:varchar(128)" json:"-"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string    `gorm:"type:varchar(512)" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	User AdminUser `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "admin_sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if len(s.UserAgent) > MaxSessionUserAgent {
		s.UserAgent = strings.ToValidUTF8(s.UserAgent[:MaxSessionUserAgent], "")
	}
	return nil
}

// ExpiredAt reports whether the session is no longer valid at t.
func (s *Session) ExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

func (s *Session) IsExpired() bool {
	return s.ExpiredAt(time.Now())
}
