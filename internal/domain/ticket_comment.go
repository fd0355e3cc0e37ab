package domain

import "time"

// TicketComment is an immutable message on a ticket thread. Internal
// comments are hidden from requesters with RoleUser.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}

// TicketAttachment stores file metadata attached to a ticket. The upload
// pipeline itself lives outside this service; only the reference is kept.
type TicketAttachment struct {
	ID          string
	TicketID    string
	UploaderID  string
	FileName    string
	StoragePath string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}
