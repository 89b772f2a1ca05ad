package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docqa-backend/internal/model"
	"docqa-backend/internal/repository"
	"docqa-backend/internal/storage/object"
)

var allowedExtensions = map[string]bool{".pdf": true, ".txt": true}

// Ingester runs the ingestion pipeline for one document.
type Ingester interface {
	Ingest(ctx context.Context, doc *model.Document) (*IngestResult, error)
}

type DocumentService struct {
	docs      DocumentStore
	store     object.Store
	ingester  Ingester
	publisher ReindexPublisher
	maxBytes  int64
	now       func() time.Time
}

// NewDocumentService wires the document use cases. publisher may be nil, in
// which case re-index requests run inline.
func NewDocumentService(docs DocumentStore, store object.Store, ingester Ingester, publisher ReindexPublisher, maxBytes int64) *DocumentService {
	return &DocumentService{
		docs:      docs,
		store:     store,
		ingester:  ingester,
		publisher: publisher,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

type UploadInput struct {
	Uploader    *model.User
	FileName    string
	Content     io.Reader
	Size        int64
	ContentType string
	Confirm     bool
}

type UploadResult struct {
	Document  *model.Document `json:"document"`
	Replaced  bool            `json:"replaced"`
	Ingestion *IngestResult   `json:"ingestion"`
}

type DocumentView struct {
	ID             uuid.UUID  `json:"id"`
	FileName       string     `json:"filename"`
	UploadedBy     string     `json:"uploaded_by"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	LastEmbeddedAt *time.Time `json:"last_embedded_at"`
	UpToDate       bool       `json:"up_to_date"`
}

// ReindexOutcome is either a queued job or the result of an inline run.
type ReindexOutcome struct {
	Queued    bool          `json:"queued"`
	Ingestion *IngestResult `json:"ingestion,omitempty"`
}

// Upload stores the file under the uploader's organization and ingests it.
// An existing file with the same name is only replaced when Confirm is set.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	orgID, err := organizationOf(input.Uploader)
	if err != nil {
		return nil, err
	}
	name := cleanFileName(input.FileName)
	if name == "" || input.Content == nil {
		return nil, ErrInvalidInput
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil, ErrUnsupportedFileType
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	key := object.Key(orgID, name)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !exists {
		row, err := s.docs.GetByFileName(ctx, orgID, name)
		if err != nil {
			return nil, err
		}
		exists = row != nil
	}
	if exists && !input.Confirm {
		return nil, ErrDocumentExists
	}

	doc := &model.Document{
		FileName:       name,
		UploadedBy:     input.Uploader.Username,
		OrganizationID: orgID,
		StorageKey:     key,
		UploadedAt:     s.now().UTC(),
	}
	replaced := false
	if input.Confirm {
		if err := s.put(ctx, key, input); err != nil {
			return nil, err
		}
		if replaced, err = s.docs.Replace(ctx, doc); err != nil {
			return nil, err
		}
	} else {
		// claim the name first; a concurrent upload of the same name fails on the unique index
		if err := s.docs.Create(ctx, doc); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrDocumentExists
			}
			return nil, err
		}
		if err := s.put(ctx, key, input); err != nil {
			if derr := s.docs.Delete(ctx, orgID, doc.ID); derr != nil {
				zerolog.Ctx(ctx).Warn().Err(derr).Str("document_id", doc.ID.String()).Msg("release document row failed")
			}
			return nil, err
		}
	}
	zerolog.Ctx(ctx).Info().
		Str("document_id", doc.ID.String()).
		Str("storage_key", key).
		Bool("replaced", replaced).
		Msg("document stored")

	ingestion, err := s.ingester.Ingest(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Document: doc, Replaced: replaced, Ingestion: ingestion}, nil
}

func (s *DocumentService) put(ctx context.Context, key string, input UploadInput) error {
	if err := s.store.Put(ctx, key, input.Content, input.Size, input.ContentType); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

func (s *DocumentService) List(ctx context.Context, user *model.User) ([]DocumentView, error) {
	orgID, err := organizationOf(user)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentView, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		out = append(out, DocumentView{
			ID:             d.ID,
			FileName:       d.FileName,
			UploadedBy:     d.UploadedBy,
			UploadedAt:     d.UploadedAt,
			LastEmbeddedAt: d.LastEmbeddedAt,
			UpToDate:       d.UpToDate(),
		})
	}
	return out, nil
}

// Open streams a stored file. The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, user *model.User, fileName string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.find(ctx, user, fileName)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, doc.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return rc, doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, user *model.User, fileName string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	doc, err := s.find(ctx, user, fileName)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, object.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := s.docs.Delete(ctx, doc.OrganizationID, doc.ID); err != nil {
		if errors.Is(err, repository.ErrDocumentGone) {
			return ErrDocumentNotFound
		}
		return err
	}
	zerolog.Ctx(ctx).Info().Str("document_id", doc.ID.String()).Msg("document deleted")
	return nil
}

// Reindex re-runs ingestion for a stored file, through the queue when one is configured.
func (s *DocumentService) Reindex(ctx context.Context, user *model.User, fileName, requestID string) (*ReindexOutcome, error) {
	doc, err := s.find(ctx, user, fileName)
	if err != nil {
		return nil, err
	}
	if s.publisher == nil {
		res, err := s.ingester.Ingest(ctx, doc)
		if err != nil {
			return nil, err
		}
		return &ReindexOutcome{Ingestion: res}, nil
	}

	job := model.ReindexJob{
		DocumentID:     doc.ID,
		OrganizationID: doc.OrganizationID,
		RequestedBy:    user.Username,
		RequestID:      requestID,
	}
	if err := s.publisher.PublishReindex(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &ReindexOutcome{Queued: true}, nil
}

// HandleReindex runs a queued re-index job. Jobs for documents deleted since
// they were queued are dropped.
func (s *DocumentService) HandleReindex(ctx context.Context, job model.ReindexJob) error {
	doc, err := s.docs.GetByID(ctx, job.OrganizationID, job.DocumentID)
	if err != nil {
		return err
	}
	if doc == nil {
		zerolog.Ctx(ctx).Warn().Str("document_id", job.DocumentID.String()).Msg("reindex target gone")
		return nil
	}
	_, err = s.ingester.Ingest(ctx, doc)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil
	}
	return err
}

func (s *DocumentService) find(ctx context.Context, user *model.User, fileName string) (*model.Document, error) {
	orgID, err := organizationOf(user)
	if err != nil {
		return nil, err
	}
	name := cleanFileName(fileName)
	if name == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByFileName(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func organizationOf(user *model.User) (uuid.UUID, error) {
	if user == nil || user.OrganizationID == nil {
		return uuid.Nil, ErrNoOrganization
	}
	return *user.OrganizationID, nil
}

// cleanFileName keeps only the last path element of a client-supplied name.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
