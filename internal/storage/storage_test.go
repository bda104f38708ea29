package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/aegis/internal/domain"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestSession(dir string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        ulid.Make().String(),
		Directory: dir,
		Title:     "untitled",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	sess := newTestSession("/home/joss/project")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != sess.ID || got.Directory != sess.Directory || got.Title != sess.Title {
		t.Errorf("GetSession = %+v, want %+v", got, sess)
	}

	got.Title = "fix the build"
	if err := s.UpdateSession(ctx, got); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	again, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Title != "fix the build" {
		t.Errorf("title after update = %q", again.Title)
	}
	if again.UpdatedAt.Before(again.CreatedAt) {
		t.Error("UpdatedAt should not precede CreatedAt")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStorage(t)

	_, err := s.GetSession(context.Background(), "01J0000000000000000000NOPE")
	if err == nil {
		t.Fatal("expected an error for a missing session")
	}
	if !IsNotFound(err) {
		t.Errorf("error %v should satisfy IsNotFound", err)
	}
	nfe := &NotFoundError{}
	if !errors.As(err, &nfe) {
		t.Fatal("should be a NotFoundError")
	}
	if nfe.Entity != "session" {
		t.Errorf("entity = %q, want session", nfe.Entity)
	}
}

func TestListSessionsMostRecentFirst(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		sess := newTestSession("/tmp")
		sess.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		sess.UpdatedAt = sess.CreatedAt
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, sess.ID)
	}

	list, err := s.ListSessions(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("ListSessions returned %d, want 3", len(list))
	}
	if list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Error("sessions should be ordered newest first")
	}

	limited, err := s.ListSessions(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d sessions", len(limited))
	}
}

func TestMessagesRoundTripInOrder(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	sess := newTestSession("/tmp")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	// Same-instant timestamps exercise the ulid tiebreak.
	at := time.Now().UTC()
	roles := []domain.Role{domain.RoleUser, domain.RoleAssistant, domain.RoleTool, domain.RoleAssistant}
	var ids []string
	for i, role := range roles {
		msg := &domain.Message{
			ID:        ulid.Make().String(),
			SessionID: sess.ID,
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: at,
		}
		if role == domain.RoleTool {
			msg.ToolName = "read_file"
			msg.ToolOK = true
		}
		if err := s.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage %d: %v", i, err)
		}
		ids = append(ids, msg.ID)
	}

	msgs, err := s.GetMessages(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != len(roles) {
		t.Fatalf("GetMessages returned %d, want %d", len(msgs), len(roles))
	}
	for i, msg := range msgs {
		if msg.ID != ids[i] {
			t.Errorf("message %d id %s, want %s (insertion order lost)", i, msg.ID, ids[i])
		}
		if msg.Role != roles[i] {
			t.Errorf("message %d role %s, want %s", i, msg.Role, roles[i])
		}
	}
	if msgs[2].ToolName != "read_file" || !msgs[2].ToolOK {
		t.Errorf("tool fields lost: %+v", msgs[2])
	}
}

func TestDeleteMessage(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	sess := newTestSession("/tmp")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	msg := &domain.Message{
		ID:        ulid.Make().String(),
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMessage(ctx, msg.ID); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.GetMessages(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages after delete, got %d", len(msgs))
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	sess := newTestSession("/tmp")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	msg := &domain.Message{
		ID:        ulid.Make().String(),
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if err := s.AddUsage(ctx, &domain.Usage{SessionID: sess.ID, InputTokens: 10}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.GetMessages(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Error("messages should cascade on session delete")
	}
	u, err := s.GetUsage(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Error("usage should cascade on session delete")
	}
}

func TestUsageAccumulates(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	sess := newTestSession("/tmp")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	if err := s.AddUsage(ctx, &domain.Usage{SessionID: sess.ID, InputTokens: 100, OutputTokens: 20}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddUsage(ctx, &domain.Usage{SessionID: sess.ID, InputTokens: 50, OutputTokens: 5}); err != nil {
		t.Fatal(err)
	}

	u, err := s.GetUsage(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u == nil {
		t.Fatal("usage row missing")
	}
	if u.InputTokens != 150 || u.OutputTokens != 25 {
		t.Errorf("usage = %d/%d, want 150/25", u.InputTokens, u.OutputTokens)
	}
}

func TestGetUsageMissingIsNil(t *testing.T) {
	s := openTestStorage(t)

	u, err := s.GetUsage(context.Background(), "no-such-session")
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Errorf("GetUsage for an unknown session = %+v, want nil", u)
	}
}
