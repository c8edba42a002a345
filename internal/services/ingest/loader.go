package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// RawThread is one crawled thread as dumped by a platform crawler. Metadata
// carries the platform-native fields (upvotes, vote_score, likes, tags) that
// normalization folds onto the canonical document shape.
type RawThread struct {
	ThreadID string                 `json:"thread_id"`
	Content  string                 `json:"content"`
	Author   string                 `json:"author"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Result summarizes one ingest run.
type Result struct {
	Source   string
	Ingested int
	Skipped  int
}

// Loader upserts crawled thread dumps into document storage, normalizing
// platform metadata at write time so the scoring path never sees
// platform-native field names.
type Loader struct {
	storage interfaces.DocumentStorage
	logger  arbor.ILogger
}

// NewLoader creates an ingest loader.
func NewLoader(storage interfaces.DocumentStorage, logger arbor.ILogger) *Loader {
	return &Loader{storage: storage, logger: logger}
}

// LoadFile ingests a JSON array of raw threads for one platform.
func (l *Loader) LoadFile(source, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading thread dump %s: %w", path, err)
	}

	var threads []RawThread
	if err := json.Unmarshal(data, &threads); err != nil {
		return nil, fmt.Errorf("parsing thread dump %s: %w", path, err)
	}

	return l.Load(source, threads)
}

// Load ingests raw threads for one platform. Threads missing an id or
// content are skipped with a warning; everything else upserts by
// (source, thread_id).
func (l *Loader) Load(source string, threads []RawThread) (*Result, error) {
	platform, err := models.LookupPlatform(source)
	if err != nil {
		return nil, err
	}

	result := &Result{Source: platform.ID}
	for _, thread := range threads {
		if strings.TrimSpace(thread.ThreadID) == "" || strings.TrimSpace(thread.Content) == "" {
			l.logger.Warn().
				Str("source", platform.ID).
				Str("thread_id", thread.ThreadID).
				Msg("Skipping thread missing id or content")
			result.Skipped++
			continue
		}

		popularity, tags := platform.NormalizeMetadata(thread.Metadata)
		doc := &models.Document{
			Source:     platform.ID,
			ThreadID:   strings.TrimSpace(thread.ThreadID),
			Content:    thread.Content,
			Author:     thread.Author,
			Popularity: popularity,
			Tags:       tags,
			Metadata:   thread.Metadata,
		}
		if err := l.storage.SaveDocument(doc); err != nil {
			return result, fmt.Errorf("saving thread %s: %w", models.IndexEntryKey(platform.ID, doc.ThreadID), err)
		}
		result.Ingested++
	}

	l.logger.Info().
		Str("source", platform.ID).
		Int("ingested", result.Ingested).
		Int("skipped", result.Skipped).
		Msg("Thread dump ingested")
	return result, nil
}
