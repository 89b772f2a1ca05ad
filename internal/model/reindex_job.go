package model

import "github.com/google/uuid"

// ReindexJob is the queue payload asking a worker to re-run ingestion for one document.
type ReindexJob struct {
	DocumentID     uuid.UUID `json:"document_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	RequestedBy    string    `json:"requested_by"`
	RequestID      string    `json:"request_id,omitempty"`
}
