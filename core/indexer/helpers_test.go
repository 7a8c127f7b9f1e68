package indexer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/model"
)

const testDim = 3

// testEmbedding is deterministic: [byte length, count of "A", 1]
func testEmbedding(text string) []float32 {
	return []float32{float32(len(text)), float32(strings.Count(text, "A")), 1}
}

func testEmbedder(text string) ([]float32, error) {
	if strings.Contains(text, "FAIL") {
		return nil, errors.New("model crashed")
	}
	return testEmbedding(text), nil
}

func testRegistry() *pipeline.Registry {
	return pipeline.NewRegistry("fr", testDim,
		pipeline.WithEmbedder("fr", pipeline.EmbedFunc(testEmbedder)),
		pipeline.WithProcessor("fr", pipeline.NewRuleProcessor("fr")),
	)
}

type fakeStore struct {
	mu         sync.Mutex
	chunks     map[string]*model.Chunk
	entries    map[string]*model.Entry
	chunkCalls int
	entryCalls int
	failChunk  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chunks:  map[string]*model.Chunk{},
		entries: map[string]*model.Entry{},
	}
}

func (s *fakeStore) UpsertChunk(_ context.Context, chunk *model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkCalls++
	if s.failChunk != nil {
		return s.failChunk
	}
	s.chunks[chunk.ChunkHash] = chunk
	return nil
}

func (s *fakeStore) UpsertEntry(_ context.Context, entry *model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryCalls++
	s.entries[entry.OriginalHash] = entry
	return nil
}

func (s *fakeStore) byPath(path string) []*model.Chunk {
	var chunks []*model.Chunk
	for _, c := range s.chunks {
		if c.Path == path {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func page(path, title, content string, children ...model.RawEntry) model.RawEntry {
	return model.RawEntry{
		Type:          model.EntryTypePage,
		Path:          path,
		Title:         title,
		Content:       content,
		Language:      "fr",
		FirstSeenDate: "01/01/2020",
		Children:      children,
	}
}
