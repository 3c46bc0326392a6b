package ai

import "context"

// Responder is the generative bridge: prompt in, reply text out. An error or
// an empty reply both mean the responder is unavailable; callers must never
// let either interrupt ordinary message delivery.
type Responder interface {
	Reply(ctx context.Context, prompt string) (string, error)
}
