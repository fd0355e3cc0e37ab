package domain

import "time"

// TicketHistory is an immutable audit trail entry: one row per auditable
// field mutation. Rows are never updated or deleted.
type TicketHistory struct {
	ID        string
	TicketID  string
	Field     string
	OldValue  string
	NewValue  string
	ActorID   string
	Reason    string
	CreatedAt time.Time
}

// Audited field names used in history rows.
const (
	FieldStatus      = "Status"
	FieldPriority    = "Priority"
	FieldTitle       = "Title"
	FieldDescription = "Description"
	FieldAssignee    = "Assignee"
	FieldResolution  = "Resolution"
	FieldWorkNotes   = "WorkNotes"
	FieldDueDate     = "DueDate"
)
