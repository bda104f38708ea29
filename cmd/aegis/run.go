package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/aegis/internal/agent"
	"github.com/joss/aegis/internal/audit"
	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/config"
	"github.com/joss/aegis/internal/render"
	"github.com/joss/aegis/internal/session"
	"github.com/joss/aegis/internal/storage"
	"github.com/joss/aegis/internal/subagent"
	"github.com/joss/aegis/internal/tool"
	"github.com/joss/aegis/internal/tui"
	"github.com/joss/aegis/pkg/llm"
)

// runtime wires one agent session: policy, store, journal, classifier,
// supervisor, tool registry, dispatcher, provider, and the loop itself.
// Everything hangs off this struct; there is no package-level session
// state to leak between tests or sessions.
type runtime struct {
	settings    *config.Settings
	policy      *autonomy.Policy
	store       *storage.Storage
	journal     *audit.Journal
	table       tool.Classifier
	supervisor  *subagent.Supervisor
	provider    llm.Provider
	sess        *session.Session
	agent       *agent.Agent
	render      *render.Renderer
	workDir     string
	interactive bool
}

// buildRuntime assembles the session from settings, environment, and
// flags. The autonomy resolution order is flag, then AEGIS_AUTONOMY, then
// the configured default; the override is never persisted.
func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	levelName := settings.Autonomy
	if env := config.Env().Autonomy; env != "" {
		levelName = env
	}
	if autonomyFlag != "" {
		levelName = autonomyFlag
	}
	level, err := autonomy.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	pol := autonomy.NewPolicy(level, autonomy.Config{
		ConfirmDestructive: settings.ConfirmDestructive,
		MaxWriteBytes:      settings.MaxWriteBytes,
		MaxFilesCreated:    settings.MaxFilesCreated,
		MaxCallsPerPrompt:  settings.MaxCallsPerPrompt,
		MaxCallsPerSession: settings.MaxCallsPerSession,
		ShellTimeout:       settings.ShellTimeout(),
		WriteCooldown:      settings.WriteCooldown(),
	})

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	store, err := storage.New(config.GetPaths().Data)
	if err != nil {
		return nil, err
	}
	journal, err := audit.Open()
	if err != nil {
		store.Close()
		return nil, err
	}

	table, err := loadPolicyTable()
	if err != nil {
		journal.Close()
		store.Close()
		return nil, err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	provider := llm.NewRetry(llm.NewOpenAI(config.Env().APIKey, config.Env().ProviderURL), 0, 0)

	sess, err := session.Open(cmd.Context(), store, pol, workDir, sessionFlag)
	if err != nil {
		journal.Close()
		store.Close()
		return nil, err
	}
	// A resumed session keeps the directory its history was made in, so
	// the sandbox write grants and the tools line up with that history.
	workDir = sess.Directory

	supervisor := subagent.NewSupervisor(subagent.Config{
		MaxConcurrent: settings.MaxSubagents,
		Ceiling:       settings.SubagentCeiling(),
		Dir:           workDir,
		Writable:      tool.WritablePaths(level, workDir),
	})

	rt := &runtime{
		settings:    settings,
		policy:      pol,
		store:       store,
		journal:     journal,
		table:       table,
		supervisor:  supervisor,
		provider:    provider,
		sess:        sess,
		render:      render.New(pretty),
		workDir:     workDir,
		interactive: interactive,
	}
	rt.rebuild()
	return rt, nil
}

// rebuild repopulates the tool registry, dispatcher, system prompt, and
// loop for the current level. Called once at startup and again whenever
// the picker switches the level mid-session: registry membership is
// level-dependent, so a switch means a fresh registry, not a toggled one.
func (rt *runtime) rebuild() {
	level := rt.policy.Level()

	var confirm func(command, reason string) bool
	if rt.interactive {
		confirm = func(command, reason string) bool {
			ok, err := tui.Confirm(fmt.Sprintf("%s\n%s", command, reason))
			return err == nil && ok
		}
	}

	rt.supervisor.SetWritable(tool.WritablePaths(level, rt.workDir))

	registry := tool.SessionRegistry(level, tool.Deps{
		WorkDir:    rt.workDir,
		Policy:     rt.policy,
		Journal:    rt.journal,
		Classifier: rt.table,
		Supervisor: rt.supervisor,
		MemoryPath: config.GetPaths().Memory,
		Confirm:    confirm,
	})
	dispatcher := tool.NewDispatcher(registry, rt.policy, rt.journal)

	memory, _ := os.ReadFile(config.GetPaths().Memory)
	rt.sess.SetSystemPrompt(agent.BuildSystemPrompt(level, rt.workDir, registry.All(), string(memory)))

	rt.agent = agent.New(rt.provider, dispatcher, rt.sess, agent.Config{
		Model:         config.Env().Model,
		MaxIterations: rt.settings.MaxIterations,
		ContextWindow: rt.settings.ContextWindow,
		KeepLast:      rt.settings.KeepLastMessages,
	})
}

// Close tears the session down: still-running subagents are killed and
// their output files removed before the journal and store close.
func (rt *runtime) Close() {
	rt.supervisor.Cleanup()
	rt.journal.Close()
	rt.store.Close()
}

// RunOnce executes a single utterance and prints the answer.
func (rt *runtime) RunOnce(ctx context.Context, utterance string) error {
	answer, err := rt.agent.Run(ctx, utterance)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

// RunInteractive runs the REPL on a terminal, or treats the whole of
// stdin as one utterance when not attached to one.
func (rt *runtime) RunInteractive(ctx context.Context) error {
	if !rt.interactive {
		data, err := readAllStdin()
		if err != nil {
			return err
		}
		utterance := strings.TrimSpace(data)
		if utterance == "" {
			return fmt.Errorf("no prompt given and stdin is empty")
		}
		return rt.RunOnce(ctx, utterance)
	}

	fmt.Printf("aegis %s · session %s · level %s\n",
		version, rt.sess.ID, color.GreenString(rt.policy.Level().String()))
	fmt.Println("Commands: /autonomy /status /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.CyanString("aegis> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/status":
			fmt.Print(rt.render.Status(rt.policy.Level(), rt.policy.Config(), rt.policy.Counters()))
		case line == "/autonomy":
			rt.pickLevel()
		case strings.HasPrefix(line, "/"):
			fmt.Printf("Unknown command %s\n", line)
		default:
			if err := rt.RunOnce(ctx, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

// pickLevel runs the picker and applies the chosen level for the rest of
// the session only.
func (rt *runtime) pickLevel() {
	chosen, ok, err := tui.PickLevel(rt.policy.Level())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if !ok || chosen == rt.policy.Level() {
		return
	}
	if err := rt.policy.SetLevel(chosen); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	rt.rebuild()
	fmt.Printf("Autonomy level set to %s for this session\n", color.GreenString(chosen.String()))
}

func readAllStdin() (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return sb.String(), scanner.Err()
}
