package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// FallbackReply is appended when the model cannot be reached or returns
// nothing usable. One fixed string, no retries.
const FallbackReply = "Sorry, I'm having trouble answering right now. Please try again in a moment."

const persona = "You are Blytz, the shopping assistant for the BLYTZ.LIVE marketplace. " +
	"Answer briefly and only about the catalog below. " +
	"Recommend products by exact title and price. Catalog:\n"

// Role labels a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the chat transcript.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Generator is the slice of the generative-text client the assistant uses.
type Generator interface {
	Generate(ctx context.Context, prompt string, turns []string) (string, error)
}

// ChatAssistantDeps wires the assistant's collaborators.
type ChatAssistantDeps struct {
	Model   Generator
	Catalog *CatalogSnapshot
	Logger  func(ctx context.Context, event string, fields map[string]any)
	Clock   func() time.Time
}

// ChatAssistant keeps an ordered transcript and answers each user message
// with a single model call grounded in the catalog summary. Replies are
// sanitized before entering the transcript.
type ChatAssistant struct {
	model    Generator
	catalog  *CatalogSnapshot
	logger   func(ctx context.Context, event string, fields map[string]any)
	clock    func() time.Time
	sanitize *bluemonday.Policy

	transcript []Turn
}

// NewChatAssistant constructs a ChatAssistant validating required
// dependencies.
func NewChatAssistant(deps ChatAssistantDeps) (*ChatAssistant, error) {
	if deps.Model == nil {
		return nil, errors.New("chat: generator is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("chat: catalog snapshot is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &ChatAssistant{
		model:    deps.Model,
		catalog:  deps.Catalog,
		logger:   logger,
		clock:    clock,
		sanitize: bluemonday.StrictPolicy(),
	}, nil
}

// Send appends the user turn, asks the model once, and appends the reply.
// Any failure appends the fixed fallback string instead; the caller always
// gets a reply text, never an error.
func (a *ChatAssistant) Send(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	a.transcript = append(a.transcript, Turn{Role: RoleUser, Text: text, At: a.clock()})

	prompt := persona + a.catalog.Summary()
	reply, err := a.model.Generate(ctx, prompt, []string{text})
	if err != nil {
		a.logger(ctx, "chat.generate_failed", map[string]any{"error": err.Error()})
		reply = FallbackReply
	} else {
		reply = strings.TrimSpace(a.sanitize.Sanitize(reply))
		if reply == "" {
			reply = FallbackReply
		}
	}
	a.transcript = append(a.transcript, Turn{Role: RoleAssistant, Text: reply, At: a.clock()})
	return reply
}

// Transcript returns a copy of the conversation so far.
func (a *ChatAssistant) Transcript() []Turn {
	dup := make([]Turn, len(a.transcript))
	copy(dup, a.transcript)
	return dup
}

// Clear drops the transcript.
func (a *ChatAssistant) Clear() {
	a.transcript = nil
}
