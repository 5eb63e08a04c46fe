package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return true
	}
	return false
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
)

// AuditLog rows live in postgres; clinical documents live in MongoDB.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    string `gorm:"column:user_id;type:varchar(100);index"`
	UserRole  Role   `gorm:"column:user_role;type:varchar(30)"`
	DoctorID  string `gorm:"column:doctor_id;type:varchar(100);index"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(100);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	UserAgent  string `gorm:"column:user_agent;type:text"`
	StatusCode int    `gorm:"column:status_code"`

	// Changes is NULL when the action carried no payload.
	Changes *string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Always "Bearer"
}

// Claims are the identity fields carried by an access token.
type Claims struct {
	UserID   string `json:"sub"`
	Role     Role   `json:"role"`
	DoctorID string `json:"doctor_id,omitempty"`
}

// Caller describes who issued a request. A zero Caller means authentication
// is disabled and no doctor scoping applies.
type Caller struct {
	UserID    string
	Role      Role
	DoctorID  string
	IP        string
	RequestID string
}

// CanActFor reports whether the caller may touch data owned by doctorID.
// Admins and unauthenticated deployments are not scoped. Any other role is
// bound to its own doctor, and a role without a doctor id acts for no one.
func (c Caller) CanActFor(doctorID string) bool {
	if c.Role == RoleAdmin || (c.Role == "" && c.DoctorID == "") {
		return true
	}
	return c.DoctorID != "" && c.DoctorID == doctorID
}

// Actor is the name recorded in audit trails for this caller.
func (c Caller) Actor() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.DoctorID
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100_000
)

// NormalizePage clamps page and size to the values every list endpoint accepts.
func NormalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// TotalPages is ceil(total/size).
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// PageBounds returns the [start, end) slice bounds of a page over n items.
func PageBounds(n, page, size int) (int, int) {
	if page < 1 || size <= 0 || page-1 > n/size {
		return n, n
	}
	start := (page - 1) * size
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}
