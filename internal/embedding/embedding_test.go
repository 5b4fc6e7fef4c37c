package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheorananshul/contract-analyzer/internal/cache"
)

// stubClient returns a vector derived from the text length so tests can
// verify ordering without a live API.
type stubClient struct {
	calls int64
	fail  bool
}

func (s *stubClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *stubClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.fail {
		return nil, NewEmbeddingError(ErrCodeServerError, ErrMsgServerError)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1, 0}
	}
	return vectors, nil
}

func (s *stubClient) Name() string    { return "stub-model" }
func (s *stubClient) Dimensions() int { return 3 }

func TestBatchProcessorOrdering(t *testing.T) {
	client := &stubClient{}
	processor := NewBatchProcessor(client, 2, 4)

	texts := make([]string, 10)
	for i := range texts {
		// distinct lengths make each expected vector unique
		texts[i] = fmt.Sprintf("%0*d", i+1, i)
	}

	vectors, err := processor.Process(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d out of order", i)
	}
	assert.EqualValues(t, 5, atomic.LoadInt64(&client.calls), "10 texts at batch size 2 should take 5 calls")
}

func TestBatchProcessorEmptyText(t *testing.T) {
	processor := NewBatchProcessor(&stubClient{}, 2, 2)

	_, err := processor.Process(context.Background(), []string{"ok", ""})
	require.Error(t, err)
	var embErr EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, ErrCodeEmptyInput, embErr.Code)
}

func TestBatchProcessorClientFailure(t *testing.T) {
	processor := NewBatchProcessor(&stubClient{fail: true}, 4, 2)

	_, err := processor.Process(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestBatchProcessorNoTexts(t *testing.T) {
	processor := NewBatchProcessor(&stubClient{}, 4, 2)

	vectors, err := processor.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestCachedClient(t *testing.T) {
	memCache, err := cache.NewCache(cache.DefaultConfig())
	require.NoError(t, err)

	stub := &stubClient{}
	cached := NewCachedClient(stub, memCache, time.Minute)

	ctx := context.Background()

	first, err := cached.Embed(ctx, "termination clause")
	require.NoError(t, err)
	callsAfterFirst := atomic.LoadInt64(&stub.calls)

	second, err := cached.Embed(ctx, "termination clause")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, atomic.LoadInt64(&stub.calls), "second lookup must be served from cache")
}

func TestCachedClientBatchPartialHit(t *testing.T) {
	memCache, err := cache.NewCache(cache.DefaultConfig())
	require.NoError(t, err)

	stub := &stubClient{}
	cached := NewCachedClient(stub, memCache, time.Minute)
	ctx := context.Background()

	_, err = cached.Embed(ctx, "aa")
	require.NoError(t, err)

	vectors, err := cached.EmbedBatch(ctx, []string{"aa", "bbbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(2), vectors[0][0])
	assert.Equal(t, float32(4), vectors[1][0])
}

func TestNewClientUnknownType(t *testing.T) {
	_, err := NewClient("nope")
	require.Error(t, err)
}

func TestOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(WithModel("text-embedding-3-small"))
	require.Error(t, err)
	var embErr EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, ErrCodeInvalidAPIKey, embErr.Code)
}
