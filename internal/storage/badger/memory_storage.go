package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// MemoryStorage implements the MemoryStorage interface for Badger.
// Conversation turns are append-only per session; concurrent appends to the
// same session resolve last-write-wins.
type MemoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMemoryStorage creates a new MemoryStorage instance
func NewMemoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MemoryStorage {
	return &MemoryStorage{
		db:     db,
		logger: logger,
	}
}

// GetRecent returns the most recent turns for a session in chronological
// order, at most limit entries.
func (s *MemoryStorage) GetRecent(sessionID string, limit int) ([]*models.ConversationTurn, error) {
	var turns []models.ConversationTurn
	if err := s.db.Store().Find(&turns, badgerhold.Where("SessionID").Eq(sessionID)); err != nil {
		return nil, fmt.Errorf("failed to load conversation turns: %w", err)
	}

	sort.Slice(turns, func(i, j int) bool {
		return turns[i].Sequence < turns[j].Sequence
	})

	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	result := make([]*models.ConversationTurn, len(turns))
	for i := range turns {
		result[i] = &turns[i]
	}
	return result, nil
}

// Append records one (user, ai) exchange at the end of the session log.
func (s *MemoryStorage) Append(sessionID, userInput, aiReply string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	count, err := s.db.Store().Count(&models.ConversationTurn{}, badgerhold.Where("SessionID").Eq(sessionID))
	if err != nil {
		return fmt.Errorf("failed to count conversation turns: %w", err)
	}

	turn := &models.ConversationTurn{
		ID:        fmt.Sprintf("%s:%d", sessionID, count),
		SessionID: sessionID,
		Sequence:  int(count),
		UserInput: userInput,
		AIReply:   aiReply,
		CreatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(turn.ID, turn); err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}
