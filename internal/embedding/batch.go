package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
)

// BatchProcessor embeds large text sets by splitting them into API-sized
// batches and running the batches on a worker pool. Results come back in
// input order regardless of which batch finished first.
type BatchProcessor struct {
	client     Client
	batchSize  int
	maxWorkers int
}

// NewBatchProcessor creates a batch processor around an embedding client.
func NewBatchProcessor(client Client, batchSize int, maxWorkers int) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = 16
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	return &BatchProcessor{
		client:     client,
		batchSize:  batchSize,
		maxWorkers: maxWorkers,
	}
}

// Process embeds all texts and returns one vector per input, in order.
// Empty texts are rejected up front; chunking never produces them.
func (p *BatchProcessor) Process(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, text := range texts {
		if text == "" {
			return nil, NewEmbeddingError(ErrCodeEmptyInput,
				fmt.Sprintf("text %d is empty", i))
		}
	}

	batches := splitIntoBatches(texts, p.batchSize)

	wp := workerpool.New(p.maxWorkers)
	var mu sync.Mutex
	batchVectors := make([][][]float32, len(batches))
	var processingErr error
	var errOnce sync.Once

	for i, batch := range batches {
		i, batch := i, batch
		wp.Submit(func() {
			select {
			case <-ctx.Done():
				errOnce.Do(func() {
					mu.Lock()
					processingErr = ctx.Err()
					mu.Unlock()
				})
				return
			default:
			}

			vectors, err := p.client.EmbedBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errOnce.Do(func() {
					processingErr = fmt.Errorf("batch %d processing error: %v", i, err)
				})
				return
			}
			batchVectors[i] = vectors
		})
	}

	wp.StopWait()

	if processingErr != nil {
		return nil, processingErr
	}

	// batches are assembled by index, so output order equals input order
	results := make([][]float32, 0, len(texts))
	for _, vectors := range batchVectors {
		results = append(results, vectors...)
	}
	if len(results) != len(texts) {
		return nil, NewEmbeddingError(ErrCodeServerError,
			"embedding batch results do not cover every input text")
	}

	return results, nil
}

// splitIntoBatches splits texts into slices of at most batchSize.
func splitIntoBatches(texts []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = 1
	}

	batches := make([][]string, 0, (len(texts)+batchSize-1)/batchSize)
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[i:end])
	}
	return batches
}
