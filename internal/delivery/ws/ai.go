package ws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/papo-live/papo/internal/domain"
)

// respondToMention runs as its own goroutine after the human message has
// been broadcast. Its only effects are a follow-up broadcast on success or a
// single room_error to the sender on failure; it must never crash or block
// the handler that spawned it.
func (s *Session) respondToMention(code, text string) {
	defer func() {
		if r := recover(); r != nil {
			s.hub.logger.Error().Interface("panic", r).Msg("ai responder goroutine panicked")
		}
	}()

	if s.hub.responder == nil {
		s.sendError(errAIUnavailable)
		return
	}

	name := s.identity.Username
	if name == "" {
		name = "user"
	}
	handle := NormalizeHandle(name)

	prompt := fmt.Sprintf("You are %s. Reply in Portuguese in 1-3 short sentences. The user %q said: %q.",
		domain.AIName, name, text)

	reply, err := s.hub.responder.Reply(context.Background(), prompt)
	if err != nil {
		s.hub.logger.Warn().Err(err).Msg("ai responder failed")
		s.sendError(errAIUnavailable)
		return
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		s.sendError(errAIUnavailable)
		return
	}

	msg := domain.ChatMessage{
		ID:       fmt.Sprintf("ai-%d", time.Now().UnixMilli()),
		Username: domain.AIName,
		Type:     domain.MessageText,
		Message:  "@" + handle + " " + reply,
		At:       time.Now().UnixMilli(),
	}
	s.hub.sendToRoom(code, frame(domain.EventNewMessage, msg))
}
