package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/session"
	"github.com/joss/aegis/internal/storage"
	"github.com/joss/aegis/pkg/llm"
)

// scriptedProvider replays canned turns and keeps request copies for
// assertions.
type scriptedProvider struct {
	turns    []string
	requests []llm.ChatRequest
	calls    int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.requests = append(p.requests, *req)
	if p.calls >= len(p.turns) {
		return nil, fmt.Errorf("scripted provider exhausted after %d turns", p.calls)
	}
	turn := p.turns[p.calls]
	p.calls++
	return &llm.ChatResponse{Content: turn}, nil
}

// fakeRunner stands in for the dispatcher.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
	inputs  []string
}

func (f *fakeRunner) Execute(_ context.Context, name, input string) (string, error) {
	f.calls = append(f.calls, name)
	f.inputs = append(f.inputs, input)
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	return f.outputs[name], nil
}

func newTestAgent(t *testing.T, p llm.Provider, tr ToolRunner, cfg Config) (*Agent, *session.Session) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pol := autonomy.NewPolicy(autonomy.Workspace, autonomy.Config{})
	sess, err := session.Open(context.Background(), store, pol, "/work", "")
	require.NoError(t, err)
	sess.SetSystemPrompt("You are a careful assistant.")

	return New(p, tr, sess, cfg), sess
}

func call(name, input string) string {
	return "TOOL_CALL: " + name + "\n" + input + "\nEND_TOOL_CALL"
}

func TestRunPlainAnswer(t *testing.T) {
	p := &scriptedProvider{turns: []string{"Nothing to look up."}}
	a, sess := newTestAgent(t, p, &fakeRunner{}, Config{})

	answer, err := a.Run(context.Background(), "any thoughts?")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to look up.", answer)

	require.Len(t, p.requests, 1)
	assert.Equal(t, "You are a careful assistant.", p.requests[0].SystemPrompt)

	msgs, err := sess.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
}

func TestRunSingleToolRound(t *testing.T) {
	p := &scriptedProvider{turns: []string{
		call("read_file", "cmd/main.go"),
		"The file defines package main.",
	}}
	runner := &fakeRunner{outputs: map[string]string{"read_file": "package main"}}
	a, sess := newTestAgent(t, p, runner, Config{})

	answer, err := a.Run(context.Background(), "what package is cmd/main.go?")
	require.NoError(t, err)
	assert.Equal(t, "The file defines package main.", answer)

	require.Equal(t, []string{"read_file"}, runner.calls)
	assert.Equal(t, []string{"cmd/main.go"}, runner.inputs)

	// The follow-up round suppresses the system prompt and sees the tool
	// result as user-role text.
	require.Len(t, p.requests, 2)
	assert.Equal(t, followupPrompt, p.requests[1].SystemPrompt)
	last := p.requests[1].Messages[len(p.requests[1].Messages)-1]
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Equal(t, "Tool result (read_file):\npackage main", last.Content)

	msgs, err := sess.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "TOOL_CALL: read_file")
	assert.Equal(t, domain.RoleTool, msgs[2].Role)
	assert.Equal(t, "read_file", msgs[2].ToolName)
	assert.True(t, msgs[2].ToolOK)
	assert.Equal(t, "package main", msgs[2].Content)
}

func TestRunIdenticalCallReturnsPreviousResult(t *testing.T) {
	p := &scriptedProvider{turns: []string{
		call("read_file", "a.go"),
		call("read_file", "a.go"),
	}}
	runner := &fakeRunner{outputs: map[string]string{"read_file": "package a"}}
	a, _ := newTestAgent(t, p, runner, Config{})

	answer, err := a.Run(context.Background(), "read a.go")
	require.NoError(t, err)
	assert.Equal(t, "package a", answer)
	assert.Equal(t, 2, p.calls)
	assert.Len(t, runner.calls, 1, "the repeated call is not dispatched again")
}

func TestRunToolErrorFedBack(t *testing.T) {
	blocked := errors.New("tool write_file blocked: write tools denied at observe level")
	p := &scriptedProvider{turns: []string{
		call("write_file", "x.txt\nhi"),
		"I cannot write files at this autonomy level.",
	}}
	runner := &fakeRunner{errs: map[string]error{"write_file": blocked}}
	a, sess := newTestAgent(t, p, runner, Config{})

	answer, err := a.Run(context.Background(), "write hi to x.txt")
	require.NoError(t, err)
	assert.Equal(t, "I cannot write files at this autonomy level.", answer)

	msgs, err := sess.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, domain.RoleTool, msgs[2].Role)
	assert.False(t, msgs[2].ToolOK)
	assert.Equal(t, blocked.Error(), msgs[2].Content)

	last := p.requests[1].Messages[len(p.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "blocked: write tools denied")
}

func TestRunMalformedCallFedBack(t *testing.T) {
	p := &scriptedProvider{turns: []string{
		"TOOL_CALL:\nwho knows\nEND_TOOL_CALL",
		"Sorry, here is a plain answer instead.",
	}}
	runner := &fakeRunner{}
	a, sess := newTestAgent(t, p, runner, Config{})

	answer, err := a.Run(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, here is a plain answer instead.", answer)
	assert.Empty(t, runner.calls, "nothing reaches the dispatcher")

	msgs, err := sess.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, placeholderName, msgs[2].ToolName)
	assert.False(t, msgs[2].ToolOK)
	assert.Equal(t, "tool call is missing a name", msgs[2].Content)
}

func TestRunBudgetExhaustedReturnsLastToolResult(t *testing.T) {
	p := &scriptedProvider{turns: []string{
		call("read_file", "a.go"),
		call("list_dir", "."),
	}}
	runner := &fakeRunner{outputs: map[string]string{
		"read_file": "package a",
		"list_dir":  "a.go 12 B",
	}}
	a, _ := newTestAgent(t, p, runner, Config{MaxIterations: 2})

	answer, err := a.Run(context.Background(), "poke around")
	require.NoError(t, err)
	assert.Equal(t, "a.go 12 B", answer)
	assert.Equal(t, 2, p.calls)
}

func TestRunNoAnswerAfterBudget(t *testing.T) {
	p := &scriptedProvider{turns: []string{
		"TOOL_CALL:\nEND_TOOL_CALL",
		"TOOL_CALL:\nEND_TOOL_CALL",
	}}
	a, _ := newTestAgent(t, p, &fakeRunner{}, Config{MaxIterations: 2})

	_, err := a.Run(context.Background(), "hmm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no final answer after 2 rounds")
}

func TestRunProviderErrorSurfacesVerbatim(t *testing.T) {
	p := &scriptedProvider{} // no turns scripted: every call errors
	a, _ := newTestAgent(t, p, &fakeRunner{}, Config{})

	_, err := a.Run(context.Background(), "hello?")
	require.Error(t, err)
	assert.EqualError(t, err, "scripted provider exhausted after 0 turns")
}

func TestRunResetsPromptCounter(t *testing.T) {
	p := &scriptedProvider{turns: []string{"ok"}}
	a, sess := newTestAgent(t, p, &fakeRunner{}, Config{})

	require.NoError(t, sess.Policy().RecordCall())
	require.NoError(t, sess.Policy().RecordCall())

	_, err := a.Run(context.Background(), "fresh prompt")
	require.NoError(t, err)

	snap := sess.Policy().Counters()
	assert.EqualValues(t, 0, snap.PromptCalls, "per-prompt counter starts over each turn")
	assert.EqualValues(t, 2, snap.SessionCalls, "session counter keeps accumulating")
}

func TestRunRecordsUsage(t *testing.T) {
	p := &scriptedProvider{turns: []string{"short answer"}}
	a, sess := newTestAgent(t, p, &fakeRunner{}, Config{})

	_, err := a.Run(context.Background(), "count me")
	require.NoError(t, err)

	usage, err := sess.Usage(context.Background())
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Greater(t, usage.InputTokens, 0)
	assert.Greater(t, usage.OutputTokens, 0)
}

func TestRequestMessagesMapsToolRole(t *testing.T) {
	history := []*domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "TOOL_CALL: grep"},
		{Role: domain.RoleTool, ToolName: "grep", Content: "3 matches"},
	}

	got := requestMessages(history)
	require.Len(t, got, 3)
	assert.Equal(t, domain.RoleUser, got[0].Role)
	assert.Equal(t, domain.RoleAssistant, got[1].Role)
	assert.Equal(t, domain.RoleUser, got[2].Role)
	assert.Equal(t, "Tool result (grep):\n3 matches", got[2].Content)
}
