package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/model"
)

const (
	NoDocumentsAnswer = "I don't know (no indexed documents for your organisation)."

	groundingInstruction = "You are a helpful assistant. Answer ONLY using the CONTEXT below. " +
		"If the answer is not present, say: 'I don't know; please contact support.'"

	defaultSnippetChars = 1500
	defaultAuditLimit   = 50
	maxAuditLimit       = 200
)

type AnswerService struct {
	orgs         OrganizationStore
	retrieval    *RetrievalService
	chat         ChatModel
	audits       AuditStore
	snippetChars int
	now          func() time.Time
}

func NewAnswerService(orgs OrganizationStore, retrieval *RetrievalService, chat ChatModel, audits AuditStore, snippetChars int) *AnswerService {
	if snippetChars <= 0 {
		snippetChars = defaultSnippetChars
	}
	return &AnswerService{
		orgs:         orgs,
		retrieval:    retrieval,
		chat:         chat,
		audits:       audits,
		snippetChars: snippetChars,
		now:          time.Now,
	}
}

type AskInput struct {
	Requester    *model.User
	Organization string
	Question     string
}

type AskResult struct {
	Answer  string            `json:"answer"`
	Sources []model.SourceRef `json:"sources"`
}

// Ask answers question from the named organization's documents. Every answer
// produced by the chat model is recorded in the audit log before it is returned.
func (s *AnswerService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	name := strings.TrimSpace(input.Organization)
	if input.Requester == nil || question == "" || name == "" {
		return nil, ErrInvalidInput
	}

	org, err := s.orgs.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	// non-members get the same answer as for a missing organization
	if org == nil || !input.Requester.BelongsTo(org.ID) {
		return nil, ErrOrganizationNotFound
	}

	hits, err := s.retrieval.Search(ctx, org.ID, question, 0)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &AskResult{Answer: NoDocumentsAnswer, Sources: []model.SourceRef{}}, nil
	}

	prompt := BuildGroundingPrompt(question, hits, s.snippetChars)
	res, err := s.chat.Complete(ctx, []ai.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	sources := make([]model.SourceRef, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, model.SourceRef{
			ChunkID:    h.ID,
			DocumentID: h.DocumentID,
			FileName:   h.FileName,
			Page:       h.Metadata.Data().Page,
			Distance:   h.Distance,
		})
	}

	orgID := org.ID
	entry := &model.AuditLog{
		OrganizationID:    &orgID,
		RequesterEmail:    input.Requester.Email,
		RequesterFullName: input.Requester.FullName,
		Question:          question,
		Prompt:            prompt,
		ResponseText:      res.Text,
		InputTokens:       res.Usage.InputTokens,
		OutputTokens:      res.Usage.OutputTokens,
		TotalTokens:       res.Usage.TotalTokens,
		Sources:           datatypes.NewJSONType(sources),
		RequestedAt:       s.now().UTC(),
	}
	if res.Model != "" {
		modelName := res.Model
		entry.ModelName = &modelName
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("write audit log failed: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("organization_id", orgID.String()).
		Int("sources", len(sources)).
		Str("model", res.Model).
		Msg("question answered")

	return &AskResult{Answer: res.Text, Sources: sources}, nil
}

// AuditLogs lists the newest audit rows of the requester's organization. Admins only.
func (s *AnswerService) AuditLogs(ctx context.Context, requester *model.User, limit int) ([]model.AuditLog, error) {
	if requester == nil || requester.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	if !requester.IsAdmin {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.audits.ListByOrganization(ctx, *requester.OrganizationID, limit)
}

// BuildGroundingPrompt lays out the instruction, the tagged context snippets
// and the verbatim question. Each snippet is cut to snippetChars runes.
func BuildGroundingPrompt(question string, hits []model.ChunkHit, snippetChars int) string {
	pieces := make([]string, 0, len(hits))
	for _, h := range hits {
		pieces = append(pieces, fmt.Sprintf("[id:%s]\n%s", h.ID, truncateRunes(h.Content, snippetChars)))
	}

	var b strings.Builder
	b.WriteString(groundingInstruction)
	b.WriteString("\n\nCONTEXT:\n\n")
	b.WriteString(strings.Join(pieces, "\n\n---\n\n"))
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
