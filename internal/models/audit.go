package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded in audit_logs.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionCreate         = "CREATE"
	AuditActionUpdate         = "UPDATE"
	AuditActionDelete         = "DELETE"
	AuditActionExport         = "EXPORT"
	AuditActionDownload       = "DOWNLOAD"
)

// AuditLog is one row of the append-only audit trail. Value snapshots are
// JSON documents.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	CompanyID  *string   `db:"company_id" json:"company_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditActor identifies who performed an audited action and from where.
type AuditActor struct {
	UserID    string
	CompanyID string
	Meta      RequestMeta
}

// NewAuditLog starts an entry. Empty ids are stored as NULL.
func NewAuditLog(actor AuditActor, action, resource, resourceID string) *AuditLog {
	return &AuditLog{
		UserID:     nullable(actor.UserID),
		CompanyID:  nullable(actor.CompanyID),
		Action:     action,
		Resource:   resource,
		ResourceID: nullable(resourceID),
		IPAddress:  actor.Meta.IP,
		UserAgent:  actor.Meta.UserAgent,
	}
}

// WithValues attaches before/after snapshots; nil leaves the column NULL.
func (l *AuditLog) WithValues(before, after interface{}) *AuditLog {
	if before != nil {
		l.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		l.NewValues, _ = json.Marshal(after)
	}
	return l
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
