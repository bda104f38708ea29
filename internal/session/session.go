// Package session holds the live state of one agent run: the persisted
// conversation, the active autonomy policy, and the system prompt. It also
// owns context compaction.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/storage"
)

const defaultTitle = "New Session"

// Session binds one conversation to its working directory and policy.
type Session struct {
	ID        string
	Directory string

	policy       *autonomy.Policy
	store        *storage.Storage
	systemPrompt string
	title        string
}

// Open resumes the session with resumeID, or creates a fresh one for dir
// when resumeID is empty.
func Open(ctx context.Context, store *storage.Storage, pol *autonomy.Policy, dir, resumeID string) (*Session, error) {
	if resumeID != "" {
		sess, err := store.GetSession(ctx, resumeID)
		if err != nil {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		return &Session{
			ID:        sess.ID,
			Directory: sess.Directory,
			policy:    pol,
			store:     store,
			title:     sess.Title,
		}, nil
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        ulid.Make().String(),
		Directory: dir,
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Session{
		ID:        sess.ID,
		Directory: sess.Directory,
		policy:    pol,
		store:     store,
		title:     sess.Title,
	}, nil
}

func (s *Session) Policy() *autonomy.Policy { return s.policy }

func (s *Session) SystemPrompt() string { return s.systemPrompt }

func (s *Session) SetSystemPrompt(prompt string) { s.systemPrompt = prompt }

// Messages returns the persisted history, oldest first.
func (s *Session) Messages(ctx context.Context) ([]*domain.Message, error) {
	return s.store.GetMessages(ctx, s.ID)
}

// AppendUser persists a user turn. The first user turn also titles the
// session.
func (s *Session) AppendUser(ctx context.Context, content string) (*domain.Message, error) {
	msg, err := s.append(ctx, domain.RoleUser, content, "", false)
	if err != nil {
		return nil, err
	}
	if s.title == defaultTitle {
		title := msg.Excerpt(50)
		if err := s.store.UpdateSession(ctx, &domain.Session{ID: s.ID, Directory: s.Directory, Title: title}); err == nil {
			s.title = title
		}
	}
	return msg, nil
}

// AppendAssistant persists an assistant turn.
func (s *Session) AppendAssistant(ctx context.Context, content string) (*domain.Message, error) {
	return s.append(ctx, domain.RoleAssistant, content, "", false)
}

// AppendToolResult persists a synthetic tool-result turn.
func (s *Session) AppendToolResult(ctx context.Context, toolName string, ok bool, content string) (*domain.Message, error) {
	return s.append(ctx, domain.RoleTool, content, toolName, ok)
}

func (s *Session) append(ctx context.Context, role domain.Role, content, toolName string, toolOK bool) (*domain.Message, error) {
	msg := &domain.Message{
		ID:        ulid.Make().String(),
		SessionID: s.ID,
		Role:      role,
		Content:   content,
		ToolName:  toolName,
		ToolOK:    toolOK,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// RecordUsage accumulates token counts for one provider call.
func (s *Session) RecordUsage(ctx context.Context, inputTokens, outputTokens int) error {
	return s.store.AddUsage(ctx, &domain.Usage{
		SessionID:    s.ID,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	})
}

// Usage returns the accumulated token counts, nil when nothing is recorded.
func (s *Session) Usage(ctx context.Context) (*domain.Usage, error) {
	return s.store.GetUsage(ctx, s.ID)
}

// CompactIfNeeded folds old history into a summary when the estimated
// token count crowds the context window. Runs at most once per call.
func (s *Session) CompactIfNeeded(ctx context.Context, window, keepLast int) (int, error) {
	msgs, err := s.Messages(ctx)
	if err != nil {
		return 0, err
	}
	if !Needed(msgs, window, len(s.systemPrompt)/4) {
		return 0, nil
	}
	return NewCompactor(s.store).Compact(ctx, s.ID, keepLast)
}
