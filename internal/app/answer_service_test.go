package app

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa-backend/internal/model"
)

type answerFixture struct {
	svc    *AnswerService
	orgs   *memOrgs
	chunks *memChunks
	chat   *scriptedChat
	audits *memAudits
	org    model.Organization
}

func newAnswerFixture(t *testing.T) *answerFixture {
	t.Helper()
	org := model.Organization{ID: uuid.New(), Name: "acme"}
	f := &answerFixture{
		orgs:   &memOrgs{rows: []model.Organization{org}},
		chunks: newMemChunks(),
		chat:   &scriptedChat{reply: "The document says Alpha Beta Gamma."},
		audits: &memAudits{},
		org:    org,
	}
	vectorizer := NewVectorizer(&hashEmbedder{dims: testDims}, testDims)
	f.svc = NewAnswerService(f.orgs, NewRetrievalService(vectorizer, f.chunks, 3), f.chat, f.audits, 1500)
	return f
}

func (f *answerFixture) seed(t *testing.T) *model.Document {
	t.Helper()
	doc := pdfDocument()
	doc.OrganizationID = f.org.ID
	seedCorpus(t, f.chunks, doc)
	return doc
}

func TestAskWithoutDocumentsReturnsCannedAnswer(t *testing.T) {
	f := newAnswerFixture(t)

	res, err := f.svc.Ask(context.Background(), AskInput{
		Requester:    memberOf(f.org.ID),
		Organization: "acme",
		Question:     "What does the document say?",
	})
	require.NoError(t, err)
	assert.Equal(t, NoDocumentsAnswer, res.Answer)
	assert.Empty(t, res.Sources)
	assert.Empty(t, f.chat.prompts)
	assert.Empty(t, f.audits.rows)
}

func TestAskGroundsAnswerAndWritesOneAuditRow(t *testing.T) {
	f := newAnswerFixture(t)
	doc := f.seed(t)
	requester := memberOf(f.org.ID)

	res, err := f.svc.Ask(context.Background(), AskInput{
		Requester:    requester,
		Organization: " acme ",
		Question:     "What does the document say?",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Alpha Beta Gamma")
	require.Len(t, res.Sources, 3)
	assert.Equal(t, doc.ID, res.Sources[0].DocumentID)
	assert.Equal(t, "handbook.pdf", res.Sources[0].FileName)

	require.Len(t, f.chat.prompts, 1)
	prompt := f.chat.prompts[0]
	assert.True(t, strings.HasPrefix(prompt, groundingInstruction+"\n\nCONTEXT:\n\n"))
	assert.True(t, strings.HasSuffix(prompt, "\n\nQUESTION:\nWhat does the document say?"))
	assert.Contains(t, prompt, "[id:"+res.Sources[0].ChunkID.String()+"]")
	assert.Equal(t, 2, strings.Count(prompt, "\n\n---\n\n"))

	require.Len(t, f.audits.rows, 1)
	row := f.audits.rows[0]
	assert.Equal(t, f.org.ID, *row.OrganizationID)
	assert.Equal(t, requester.Email, row.RequesterEmail)
	assert.Equal(t, requester.FullName, row.RequesterFullName)
	assert.Equal(t, "What does the document say?", row.Question)
	assert.Equal(t, prompt, row.Prompt)
	assert.Equal(t, res.Answer, row.ResponseText)
	assert.Equal(t, 37, *row.TotalTokens)
	assert.Equal(t, "test-model", *row.ModelName)
	assert.Equal(t, res.Sources, row.Sources.Data())
}

func TestAskHidesOrganizationsTheRequesterIsNotIn(t *testing.T) {
	f := newAnswerFixture(t)
	f.seed(t)

	_, err := f.svc.Ask(context.Background(), AskInput{
		Requester:    memberOf(uuid.New()),
		Organization: "acme",
		Question:     "q",
	})
	assert.ErrorIs(t, err, ErrOrganizationNotFound)

	_, err = f.svc.Ask(context.Background(), AskInput{
		Requester:    memberOf(f.org.ID),
		Organization: "nope",
		Question:     "q",
	})
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
	assert.Empty(t, f.chat.prompts)
}

func TestAskChatFailureWritesNoAudit(t *testing.T) {
	f := newAnswerFixture(t)
	f.seed(t)
	f.chat.err = errUpstreamForTest

	_, err := f.svc.Ask(context.Background(), AskInput{
		Requester:    memberOf(f.org.ID),
		Organization: "acme",
		Question:     "q",
	})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, f.audits.rows)
}

func TestBuildGroundingPromptTruncatesSnippets(t *testing.T) {
	hit := model.ChunkHit{ID: uuid.New(), Content: strings.Repeat("é", 20)}
	prompt := BuildGroundingPrompt("why?", []model.ChunkHit{hit}, 5)
	assert.Contains(t, prompt, "[id:"+hit.ID.String()+"]\néééé"+"é\n\nQUESTION:\nwhy?")
	assert.NotContains(t, prompt, strings.Repeat("é", 6))
}

func TestAuditLogsAdminOnly(t *testing.T) {
	f := newAnswerFixture(t)
	f.seed(t)
	admin := memberOf(f.org.ID)
	_, err := f.svc.Ask(context.Background(), AskInput{Requester: admin, Organization: "acme", Question: "q"})
	require.NoError(t, err)

	rows, err := f.svc.AuditLogs(context.Background(), admin, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	member := memberOf(f.org.ID)
	member.IsAdmin = false
	_, err = f.svc.AuditLogs(context.Background(), member, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.AuditLogs(context.Background(), &model.User{IsAdmin: true}, 10)
	assert.ErrorIs(t, err, ErrNoOrganization)
}
