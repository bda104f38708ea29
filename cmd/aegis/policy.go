package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/aegis/internal/config"
	"github.com/joss/aegis/internal/policy"
	"github.com/joss/aegis/internal/render"
)

// loadPolicyTable builds the classifier table: built-ins plus the rule
// file, if one is configured or present at the default path. Loaded rules
// append; they resolve through the same longest-prefix matching as the
// built-ins rather than overriding them.
func loadPolicyTable() (*policy.Table, error) {
	table := policy.New()

	path := config.GetPaths().Rules
	explicit := false
	if env := config.Env().RuleFile; env != "" {
		path, explicit = env, true
	}
	if rulesFlag != "" {
		path, explicit = rulesFlag, true
	}

	rules, err := policy.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return table, nil
		}
		return nil, err
	}
	table.Append(rules...)
	return table, nil
}

func policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Execution policy inspection",
		Long: `Evaluate shell commands against the execution policy and list
the loaded rule table.

The classifier is level-agnostic: it grades command risk (allow, prompt,
forbidden) independently of the autonomy tier. Both walls apply when the
agent runs a command.`,
	}

	cmd.AddCommand(policyEvalCmd(), policyRulesCmd())
	return cmd
}

func policyEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <command...>",
		Short: "Classify one shell command",
		Long: `Classify a shell command without running it.

Examples:
  aegis policy eval ls -la
  aegis policy eval rm -rf /
  aegis policy eval systemctl restart nginx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadPolicyTable()
			if err != nil {
				return err
			}
			command := strings.Join(args, " ")
			verdict := table.Evaluate(command)
			fmt.Print(render.New(pretty).Verdict(command, verdict))
			return nil
		},
	}
}

func policyRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the loaded rule table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadPolicyTable()
			if err != nil {
				return err
			}
			fmt.Print(render.New(pretty).Rules(table.Rules()))
			return nil
		},
	}
}
