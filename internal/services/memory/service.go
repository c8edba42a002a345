package memory

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// Service provides conversation memory around the storage layer: recent
// turns for prompt context, and append-after-answer recording. Memory is
// advisory, so read failures degrade to an empty history instead of
// failing the question.
type Service struct {
	storage interfaces.MemoryStorage
	config  common.MemoryConfig
	logger  arbor.ILogger
}

// NewService creates a conversation memory service.
func NewService(storage interfaces.MemoryStorage, config common.MemoryConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// Recent returns the last turns of a session, newest last. An empty session
// id or a storage failure yields an empty history.
func (s *Service) Recent(sessionID string) []*models.ConversationTurn {
	if sessionID == "" {
		return nil
	}
	turns, err := s.storage.GetRecent(sessionID, s.config.RecentLimit)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("Conversation history unavailable, continuing without context")
		return nil
	}
	return turns
}

// Record appends one exchange to the session log.
func (s *Service) Record(sessionID, userInput, aiReply string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.storage.Append(sessionID, userInput, aiReply); err != nil {
		return fmt.Errorf("recording conversation turn: %w", err)
	}
	return nil
}

// FormatHistory renders turns as a prompt context block. Empty history
// renders as an empty string.
func FormatHistory(turns []*models.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Previous conversation:\n")
	for _, turn := range turns {
		sb.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", turn.UserInput, turn.AIReply))
	}
	return sb.String()
}
