package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sheorananshul/contract-analyzer/internal/database"
	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/embedding"
	"github.com/sheorananshul/contract-analyzer/internal/evaluator"
	"github.com/sheorananshul/contract-analyzer/internal/evidence"
	"github.com/sheorananshul/contract-analyzer/internal/llm"
	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/repository"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
	"github.com/sheorananshul/contract-analyzer/internal/scorer"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
	"github.com/sheorananshul/contract-analyzer/internal/vectordb"
	"github.com/sheorananshul/contract-analyzer/pkg/storage"
)

// keywordEmbedder maps texts to vectors by keyword occurrence, so related
// texts score high under cosine similarity and unrelated ones near zero.
type keywordEmbedder struct{}

var embedKeywords = []string{"notice", "terminat", "encrypt"}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(embedKeywords)+1)
	for i, kw := range embedKeywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	vec[len(embedKeywords)] = 0.1
	return vec, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *keywordEmbedder) Name() string    { return "keyword" }
func (e *keywordEmbedder) Dimensions() int { return len(embedKeywords) + 1 }

// templateLLM fills {{CHUNK_ID}} in its response template with the first
// chunk ID cited in the prompt. A non-nil err is returned instead.
type templateLLM struct {
	template string
	err      error
	calls    atomic.Int32
}

var chunkIDRe = regexp.MustCompile(`\[chunk_id: ([^ \]|]+)`)

func (c *templateLLM) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}

	text := c.template
	if m := chunkIDRe.FindStringSubmatch(prompt); m != nil {
		text = strings.ReplaceAll(text, "{{CHUNK_ID}}", m[1])
	}
	return &llm.Response{Text: text}, nil
}

func (c *templateLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.GenerateOption) (*llm.Response, error) {
	return nil, errors.New("not implemented")
}

func (c *templateLLM) Name() string { return "template" }

const compliantTemplate = `{
  "status": "compliant",
  "controls": [
    {
      "name": "30 days notice",
      "covered": true,
      "contradicted": false,
      "evidence": [
        {"chunk_id": "{{CHUNK_ID}}", "quote": "thirty (30) days prior written notice"}
      ]
    }
  ],
  "rationale": "The termination clause grants the required notice period.",
  "gaps": [],
  "recommendations": []
}`

const contractText = "Section 6.7 Termination. Either party may terminate this Agreement " +
	"upon thirty (30) days prior written notice to the other party, and such " +
	"notice shall state the effective date of termination of the Agreement.\n\n" +
	"Section 9.1 Data Handling. All customer records shall be retained for " +
	"seven years and reviewed annually by the records custodian for accuracy."

// noticeSet is a one-requirement set the contract satisfies.
func noticeSet() *standards.Set {
	return &standards.Set{
		Name: "termination checklist",
		Requirements: []models.Requirement{
			{
				ID:          "REQ-NOTICE",
				Name:        "Termination notice",
				Description: "Either party must be able to terminate with thirty days written notice",
				Controls:    []string{"30 days notice"},
			},
		},
	}
}

// encryptionRequirement has no supporting text in the contract.
func encryptionRequirement() models.Requirement {
	return models.Requirement{
		ID:          "REQ-ENC",
		Name:        "Encryption at rest",
		Description: "Customer data must be encrypted at rest",
		Controls:    []string{"encryption at rest"},
	}
}

type fixture struct {
	docs     *DocumentService
	analysis *AnalysisService
}

func newFixture(t *testing.T, client llm.Client) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	chunker, err := document.NewChunker(document.DefaultChunkerConfig())
	require.NoError(t, err)

	embedder := &keywordEmbedder{}
	index, err := vectordb.NewMemoryRepository(vectordb.Config{
		Type:           "memory",
		Dimension:      embedder.Dimensions(),
		DistanceType:   vectordb.Cosine,
		EmbeddingModel: embedder.Name(),
	})
	require.NoError(t, err)

	ret, err := retriever.New(embedder, index, retriever.DefaultConfig())
	require.NoError(t, err)

	eval, err := evaluator.New(client, scorer.DefaultWeights(), time.Second)
	require.NoError(t, err)

	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)

	docs := NewDocumentService(
		store,
		repository.NewDocumentRepositoryWithDB(db),
		chunker,
		embedding.NewBatchProcessor(embedder, 8, 2),
		index,
		WithDocumentLogger(quiet),
	)

	analysis := NewAnalysisService(
		docs,
		ret,
		evidence.NewAggregator(120),
		eval,
		repository.NewAnalysisRepositoryWithDB(db),
		WithConcurrency(2),
		WithAnalysisLogger(quiet),
	)

	return &fixture{docs: docs, analysis: analysis}
}

// uploadAndIndex stores the test contract and makes it queryable.
func (f *fixture) uploadAndIndex(t *testing.T) string {
	t.Helper()

	boundaries := []document.SectionBoundary{
		{Offset: 0, Label: "Section 6.7"},
		{Offset: strings.Index(contractText, "Section 9.1"), Label: "Section 9.1"},
	}

	record, err := f.docs.Upload(context.Background(), "msa.txt", contractText, boundaries)
	require.NoError(t, err)

	count, err := f.docs.Index(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	return record.ID
}

func TestAnalyzeDocumentCompliant(t *testing.T) {
	client := &templateLLM{template: compliantTemplate}
	f := newFixture(t, client)
	docID := f.uploadAndIndex(t)

	result, err := f.analysis.AnalyzeDocument(context.Background(), docID, noticeSet())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, result.Status)
	require.Len(t, result.Findings, 1)

	finding := result.Findings[0]
	assert.Equal(t, "REQ-NOTICE", finding.RequirementID)
	assert.Equal(t, models.StatusCompliant, finding.Status)
	assert.Empty(t, finding.Error)
	require.Len(t, finding.Quotes, 1)
	assert.Equal(t, "Section 6.7", finding.Quotes[0].Section)
	assert.Greater(t, finding.Confidence, 0.55)
	assert.Less(t, finding.Confidence, 0.97)
	assert.Equal(t, 1, result.Summary.Compliant)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestAnalyzeDocumentNoEvidence(t *testing.T) {
	client := &templateLLM{template: compliantTemplate}
	f := newFixture(t, client)
	docID := f.uploadAndIndex(t)

	set := &standards.Set{
		Name:         "security checklist",
		Requirements: []models.Requirement{encryptionRequirement()},
	}

	result, err := f.analysis.AnalyzeDocument(context.Background(), docID, set)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, result.Status, "missing evidence is a verdict, not a failure")
	require.Len(t, result.Findings, 1)

	finding := result.Findings[0]
	assert.Equal(t, models.StatusInsufficientEvidence, finding.Status)
	assert.Equal(t, "insufficient", finding.Band)
	assert.Less(t, finding.Confidence, 0.30)
	assert.Empty(t, finding.Quotes)
	assert.Equal(t, int32(0), client.calls.Load(), "model is not consulted without evidence")
}

func TestAnalyzeDocumentModelFailureIsPartial(t *testing.T) {
	client := &templateLLM{err: errors.New("model unavailable")}
	f := newFixture(t, client)
	docID := f.uploadAndIndex(t)

	set := noticeSet()
	set.Requirements = append(set.Requirements, encryptionRequirement())

	result, err := f.analysis.AnalyzeDocument(context.Background(), docID, set)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartial, result.Status)
	require.Len(t, result.Findings, 2)

	failed := result.Findings[0]
	assert.Equal(t, models.StatusInsufficientEvidence, failed.Status)
	assert.NotEmpty(t, failed.Error)

	run, _, err := f.analysis.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, run.Status)
	assert.Equal(t, 1, run.Failed)
}

func TestAnalyzeDocumentRejectsUnindexed(t *testing.T) {
	f := newFixture(t, &templateLLM{template: compliantTemplate})

	record, err := f.docs.Upload(context.Background(), "msa.txt", contractText, nil)
	require.NoError(t, err)

	_, err = f.analysis.AnalyzeDocument(context.Background(), record.ID, noticeSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not indexed")
}

func TestRunRoundTripAndReport(t *testing.T) {
	f := newFixture(t, &templateLLM{template: compliantTemplate})
	docID := f.uploadAndIndex(t)

	set := noticeSet()
	result, err := f.analysis.AnalyzeDocument(context.Background(), docID, set)
	require.NoError(t, err)

	run, findings, err := f.analysis.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, docID, run.DocumentID)
	require.Len(t, findings, 1)
	assert.Equal(t, result.Findings[0].Status, findings[0].Status)
	assert.Equal(t, result.Findings[0].Quotes, findings[0].Quotes)
	assert.InDelta(t, result.Findings[0].Confidence, findings[0].Confidence, 1e-9)

	rows, summary, err := f.analysis.BuildReport(result.RunID, set)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Termination notice", rows[0].RequirementName)
	require.Len(t, rows[0].QuoteGroups, 1)
	assert.Equal(t, "Section 6.7", rows[0].QuoteGroups[0].Section)
	assert.Equal(t, 1, summary.Compliant)

	runs, total, err := f.analysis.ListRuns(docID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, result.RunID, runs[0].ID)
}

func TestEvaluateRequirementDeterministic(t *testing.T) {
	f := newFixture(t, &templateLLM{template: compliantTemplate})
	docID := f.uploadAndIndex(t)

	first, err := f.analysis.EvaluateRequirement(context.Background(), docID, noticeSet().Requirements[0])
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := f.analysis.EvaluateRequirement(context.Background(), docID, noticeSet().Requirements[0])
		require.NoError(t, err)
		assert.Equal(t, first, again, "run %d diverged", i)
	}
}

func TestDocumentDelete(t *testing.T) {
	f := newFixture(t, &templateLLM{template: compliantTemplate})
	docID := f.uploadAndIndex(t)

	require.NoError(t, f.docs.Delete(context.Background(), docID))

	_, err := f.docs.Get(docID)
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	_, err = f.docs.Load(docID)
	require.Error(t, err)
}

func TestIndexReindexReplacesEntries(t *testing.T) {
	f := newFixture(t, &templateLLM{template: compliantTemplate})
	docID := f.uploadAndIndex(t)

	count, err := f.docs.Index(context.Background(), docID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	record, err := f.docs.Get(docID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusIndexed, record.Status)
	assert.Equal(t, 2, record.ChunkCount)

	// a second index pass must not duplicate evidence
	finding, err := f.analysis.EvaluateRequirement(context.Background(), docID, noticeSet().Requirements[0])
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompliant, finding.Status)
	assert.Equal(t, 1, finding.Coverage.Spans)
}

func TestUploadRejectsBadBoundaries(t *testing.T) {
	f := newFixture(t, &templateLLM{template: compliantTemplate})

	_, err := f.docs.Upload(context.Background(), "bad.txt", "short text", []document.SectionBoundary{
		{Offset: 500, Label: "Section 1"},
	})
	require.Error(t, err)

	docs, total, err := f.docs.List(0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "nothing persisted on validation failure")
	assert.Empty(t, docs)
}
