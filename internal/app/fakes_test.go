package app

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/cache"
	"docqa-backend/internal/model"
	"docqa-backend/internal/pkg/pdfextract"
	"docqa-backend/internal/repository"
	"docqa-backend/internal/storage/object"
)

const testDims = 768

// hashEmbedder derives a stable vector from the text so equal texts embed equally.
type hashEmbedder struct {
	dims  int
	err   error
	calls int
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, e.dims)
	for i := range vec {
		vec[i] = float32((seed>>(uint(i)%24))&0xff) + 1
	}
	return vec, nil
}

type stubExtractor struct {
	pages []pdfextract.Page
	err   error
}

func (s stubExtractor) Extract(context.Context, string) ([]pdfextract.Page, error) {
	return s.pages, s.err
}

type memChunks struct {
	mu       sync.Mutex
	byDoc    map[uuid.UUID][]model.DocumentChunk
	fresh    map[uuid.UUID]time.Time
	replaces int
	err      error
	// onEmbedded mirrors the last_embedded_at update the repository performs
	onEmbedded func(documentID uuid.UUID, at time.Time)
}

func newMemChunks() *memChunks {
	return &memChunks{byDoc: map[uuid.UUID][]model.DocumentChunk{}, fresh: map[uuid.UUID]time.Time{}}
}

func (m *memChunks) ReplaceForDocument(_ context.Context, documentID uuid.UUID, chunks []model.DocumentChunk, embeddedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.replaces++
	m.byDoc[documentID] = append([]model.DocumentChunk(nil), chunks...)
	m.fresh[documentID] = embeddedAt
	if m.onEmbedded != nil {
		m.onEmbedded(documentID, embeddedAt)
	}
	return nil
}

func (m *memChunks) Nearest(_ context.Context, orgID uuid.UUID, vec []float32, k int) ([]model.ChunkHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []model.ChunkHit
	for _, chunks := range m.byDoc {
		for _, c := range chunks {
			if c.OrganizationID != orgID {
				continue
			}
			hits = append(hits, model.ChunkHit{
				ID:             c.ID,
				DocumentID:     c.DocumentID,
				OrganizationID: c.OrganizationID,
				FileName:       c.Metadata.Data().Source,
				Content:        c.Content,
				Metadata:       c.Metadata,
				Distance:       l2(vec, c.Embedding.Slice()),
			})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memChunks) all() []model.DocumentChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DocumentChunk
	for _, chunks := range m.byDoc {
		out = append(out, chunks...)
	}
	return out
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// staticChunks returns a canned hit list regardless of the query.
type staticChunks struct{ hits []model.ChunkHit }

func (s staticChunks) ReplaceForDocument(context.Context, uuid.UUID, []model.DocumentChunk, time.Time) error {
	return nil
}

func (s staticChunks) Nearest(context.Context, uuid.UUID, []float32, int) ([]model.ChunkHit, error) {
	return s.hits, nil
}

type heldLock struct{}

func (heldLock) Acquire(context.Context, uuid.UUID) (func(), error) {
	return nil, cache.ErrLockHeld
}

type countingLock struct{ acquired, released int }

func (l *countingLock) Acquire(context.Context, uuid.UUID) (func(), error) {
	l.acquired++
	return func() { l.released++ }, nil
}

// memDocs drops a document's chunks together with the row when chunks is set,
// as the repository does.
type memDocs struct {
	mu     sync.Mutex
	rows   []model.Document
	chunks *memChunks
}

func (m *memDocs) Replace(_ context.Context, doc *model.Document) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	replaced := false
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.OrganizationID == doc.OrganizationID && r.FileName == doc.FileName {
			replaced = true
			m.dropChunks(r.ID)
			continue
		}
		kept = append(kept, r)
	}
	m.rows = append(kept, *doc)
	return replaced, nil
}

func (m *memDocs) Create(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.OrganizationID == doc.OrganizationID && r.FileName == doc.FileName {
			return repository.ErrDuplicate
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	m.rows = append(m.rows, *doc)
	return nil
}

func (m *memDocs) dropChunks(documentID uuid.UUID) {
	if m.chunks == nil {
		return
	}
	m.chunks.mu.Lock()
	defer m.chunks.mu.Unlock()
	delete(m.chunks.byDoc, documentID)
}

func (m *memDocs) GetByFileName(_ context.Context, orgID uuid.UUID, fileName string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.OrganizationID == orgID && r.FileName == fileName {
			d := r
			return &d, nil
		}
	}
	return nil, nil
}

func (m *memDocs) GetByID(_ context.Context, orgID, id uuid.UUID) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.OrganizationID == orgID && r.ID == id {
			d := r
			return &d, nil
		}
	}
	return nil, nil
}

func (m *memDocs) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Document
	for _, r := range m.rows {
		if r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memDocs) Delete(_ context.Context, orgID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.OrganizationID == orgID && r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			m.dropChunks(id)
			return nil
		}
	}
	return repository.ErrDocumentGone
}

// setEmbedded mirrors what the chunk repository does to the documents table.
func (m *memDocs) setEmbedded(id uuid.UUID, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			t := at
			m.rows[i].LastEmbeddedAt = &t
		}
	}
}

type memObjects struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemObjects() *memObjects { return &memObjects{data: map[string][]byte{}} }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return object.ErrNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memObjects) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

type memOrgs struct {
	rows    []model.Organization
	deleted []uuid.UUID
}

func (m *memOrgs) CreateWithOwner(_ context.Context, org *model.Organization, _ uuid.UUID) error {
	for _, r := range m.rows {
		if r.Name == org.Name {
			return repository.ErrDuplicate
		}
	}
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	m.rows = append(m.rows, *org)
	return nil
}

func (m *memOrgs) GetByName(_ context.Context, name string) (*model.Organization, error) {
	for _, r := range m.rows {
		if r.Name == name {
			o := r
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memOrgs) GetByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	for _, r := range m.rows {
		if r.ID == id {
			o := r
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memOrgs) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type memAudits struct{ rows []model.AuditLog }

func (m *memAudits) Create(_ context.Context, entry *model.AuditLog) error {
	m.rows = append(m.rows, *entry)
	return nil
}

func (m *memAudits) ListByOrganization(_ context.Context, orgID uuid.UUID, limit int) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for _, r := range m.rows {
		if r.OrganizationID != nil && *r.OrganizationID == orgID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type memUsers struct{ rows []*model.User }

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.rows = append(m.rows, user)
	return nil
}

func (m *memUsers) find(match func(*model.User) bool) *model.User {
	for _, u := range m.rows {
		if match(u) {
			return u
		}
	}
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username }), nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email }), nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id }), nil
}

// scriptedChat answers every prompt with the same reply and records what it saw.
type scriptedChat struct {
	reply   string
	err     error
	prompts []string
}

func (c *scriptedChat) Complete(_ context.Context, messages []ai.ChatMessage) (*ai.ChatResult, error) {
	for _, m := range messages {
		c.prompts = append(c.prompts, m.Content)
	}
	if c.err != nil {
		return nil, c.err
	}
	in, out := 30, 7
	total := in + out
	return &ai.ChatResult{
		Text:  c.reply,
		Model: "test-model",
		Usage: ai.TokenUsage{InputTokens: &in, OutputTokens: &out, TotalTokens: &total},
	}, nil
}

type recordingPublisher struct{ jobs []model.ReindexJob }

func (p *recordingPublisher) PublishReindex(_ context.Context, job model.ReindexJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

var errUpstreamForTest = errors.New("provider unavailable")

func memberOf(orgID uuid.UUID) *model.User {
	id := orgID
	return &model.User{
		ID:             uuid.New(),
		Username:       "alice",
		Email:          "alice@example.com",
		FullName:       "Alice Example",
		IsActive:       true,
		IsAdmin:        true,
		OrganizationID: &id,
	}
}
