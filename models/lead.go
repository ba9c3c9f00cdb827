package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead status
const (
	LeadStatusNew        = "new"
	LeadStatusInProgress = "in_progress"
	LeadStatusDone       = "done"
	LeadStatusArchived   = "archived"
)

// LeadStatuses lists every status in workflow order.
var LeadStatuses = []string{LeadStatusNew, LeadStatusInProgress, LeadStatusDone, LeadStatusArchived}

// IsValidLeadStatus reports whether s is a known status.
func IsValidLeadStatus(s string) bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// LeadKind identifies which form a submission came from.
type LeadKind string

const (
	LeadKindContact      LeadKind = "contact"
	LeadKindConsultation LeadKind = "consultation"
	LeadKindInquiry      LeadKind = "inquiry"
)

// LeadKinds lists every kind in dashboard order.
var LeadKinds = []LeadKind{LeadKindContact, LeadKindConsultation, LeadKindInquiry}

// ParseLeadKind converts s to a LeadKind.
func ParseLeadKind(s string) (LeadKind, bool) {
	for _, k := range LeadKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Lead holds the fields shared by every form submission.
type Lead struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Requester information
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null;index" json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `gorm:"type:text" json:"message,omitempty"`

	// Where the submission came from
	Locale string `gorm:"not null;default:me" json:"locale"`
	Page   string `json:"page"`

	Status string `gorm:"not null;default:new;index" json:"status"`

	// Audit fields
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `gorm:"type:text" json:"user_agent,omitempty"`
}

// BeforeCreate hook to generate UUID
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	return nil
}

// Base returns the shared lead fields.
func (l *Lead) Base() *Lead { return l }

// Submission is implemented by every lead model.
type Submission interface {
	Kind() LeadKind
	Base() *Lead
}

// ContactMessage is sent from the contact form on the home page.
type ContactMessage struct {
	Lead
	Company string `json:"company,omitempty"`
}

func (ContactMessage) TableName() string { return "contact_messages" }

func (*ContactMessage) Kind() LeadKind { return LeadKindContact }

// ConsultationRequest is a free consultation booking.
type ConsultationRequest struct {
	Lead
	Company          string     `json:"company,omitempty"`
	Website          string     `json:"website,omitempty"`
	Topic            string     `gorm:"type:text" json:"topic"`
	PreferredDate    *time.Time `json:"preferred_date,omitempty"`
	PreferredContact string     `gorm:"not null;default:email" json:"preferred_contact"`
}

func (ConsultationRequest) TableName() string { return "consultation_requests" }

func (*ConsultationRequest) Kind() LeadKind { return LeadKindConsultation }

// ServiceInquiry is a quote request for one service.
type ServiceInquiry struct {
	Lead
	Service  string `gorm:"not null;index" json:"service"`
	Company  string `json:"company,omitempty"`
	Budget   string `json:"budget,omitempty"`
	Timeline string `json:"timeline,omitempty"`

	// File metadata
	FileName         string `json:"file_name,omitempty"`
	FileOriginalName string `json:"file_original_name,omitempty"`
	FilePath         string `json:"-"` // Not exposed in JSON for security
	FileSize         int64  `json:"file_size,omitempty"`
	FileContentType  string `json:"file_content_type,omitempty"`
}

func (ServiceInquiry) TableName() string { return "service_inquiries" }

func (*ServiceInquiry) Kind() LeadKind { return LeadKindInquiry }

// HasAttachment reports whether an attachment was stored.
func (s *ServiceInquiry) HasAttachment() bool {
	return s.FilePath != ""
}
