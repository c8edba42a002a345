package models

import (
	"time"
)

// Document represents a normalized content unit from any source platform.
// A (Source, ThreadID) pair identifies one thread; re-ingesting the same
// thread updates the stored document instead of duplicating it.
type Document struct {
	// Identity
	ID       string `json:"id"`        // doc_{uuid}
	Source   string `json:"source"`    // reddit, stackoverflow, rednote
	ThreadID string `json:"thread_id"` // Groups a root post and its replies

	// Content
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`

	// Popularity is the canonical engagement count, normalized at ingestion
	// from the platform-native field (upvotes, vote_score, likes).
	Popularity int64 `json:"popularity"`

	// Tags carry platform-specific labels: subreddit name, SO tags, content tags.
	Tags []string `json:"tags,omitempty"`

	// Metadata holds source-specific data that has no canonical field.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// RelevanceScore is attached at query time by the retriever. It is
	// never persisted.
	RelevanceScore float64 `json:"relevance_score,omitempty" badgerhold:"-"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IndexEntry records that a thread has been embedded and written to the
// indexes, so incremental runs can compute the unindexed set.
type IndexEntry struct {
	Key       string    `json:"key"` // source:thread_id
	Source    string    `json:"source"`
	ThreadID  string    `json:"thread_id"`
	DocID     string    `json:"doc_id"`
	IndexedAt time.Time `json:"indexed_at"`
}

// IndexEntryKey builds the tracking-store key for a thread.
func IndexEntryKey(source, threadID string) string {
	return source + ":" + threadID
}

// DocumentStats summarizes the stored corpus.
type DocumentStats struct {
	TotalDocuments    int            `json:"total_documents"`
	DocumentsBySource map[string]int `json:"documents_by_source"`
	IndexedDocuments  int            `json:"indexed_documents"`
	LastUpdated       time.Time      `json:"last_updated"`
}
