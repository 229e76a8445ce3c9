// Package cli provides the command-line interface for kudusql.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/internal/cli/commands"
	"github.com/leapstack-labs/kudusql/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kudusql",
		Short: "kudusql - Kudu schema tooling over Impala",
		Long: `kudusql manages Apache Kudu tables through Impala.

It renders Kudu-flavoured DDL from table definitions, inspects and changes
table schemas, rebuilds tables when primary-key columns change, records
schema migration versions, and runs ad-hoc queries.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			res, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cfg := res.Config

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := config.WithLogger(cmd.Context(), logger)
			ctx = commands.WithConfig(ctx, cfg)
			cmd.SetContext(ctx)

			if res.FileUsed != "" {
				logger.Debug("using config file", slog.String("path", res.FileUsed))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Kudu schema tooling over Impala
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.ConfigFileName+")")
	flags.String("host", "", "Impala daemon host")
	flags.Int("port", 0, "Impala daemon port")
	flags.String("database", "", "Database to use")
	flags.String("user", "", "User name")
	flags.String("password", "", "Password")
	flags.String("driver", "", "database/sql driver name")
	flags.String("state", "", "Path to the local state database")
	flags.String("migrations-dir", "", "Path to migrations directory")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", "", "Output format (table|json|csv|markdown)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	addGroup(rootCmd, GroupEngine,
		commands.NewQueryCommand(),
		commands.NewExecCommand(),
		commands.NewTablesCommand(),
		commands.NewDescribeCommand(),
	)
	addGroup(rootCmd, GroupSchema,
		commands.NewDDLCommand(),
		commands.NewTableCommand(),
		commands.NewColumnCommand(),
	)
	addGroup(rootCmd, GroupMigrations,
		commands.NewMigrateCommand(),
		commands.NewRebuildCommand(),
	)
	addGroup(rootCmd, GroupTooling,
		commands.NewDoctorCommand(),
		commands.NewVersionCommand(commands.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}),
		NewCompletionCommand(),
	)

	return rootCmd
}

// Command group IDs, in help order.
const (
	GroupEngine     = "engine"
	GroupSchema     = "schema"
	GroupMigrations = "migrations"
	GroupTooling    = "tooling"
)

var groupTitles = map[string]string{
	GroupEngine:     "Engine Commands:",
	GroupSchema:     "Schema Commands:",
	GroupMigrations: "Migration and Rebuild Commands:",
	GroupTooling:    "Tooling Commands:",
}

func addGroup(root *cobra.Command, id string, cmds ...*cobra.Command) {
	root.AddGroup(&cobra.Group{ID: id, Title: groupTitles[id]})
	for _, cmd := range cmds {
		cmd.GroupID = id
		root.AddCommand(cmd)
	}
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for kudusql.

To load completions:

Bash:
  $ source <(kudusql completion bash)
  
  # To load completions for each session, execute once:
  # Linux:
  $ kudusql completion bash > /etc/bash_completion.d/kudusql
  # macOS:
  $ kudusql completion bash > $(brew --prefix)/etc/bash_completion.d/kudusql

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  
  # To load completions for each session, execute once:
  $ kudusql completion zsh > "${fpath[1]}/_kudusql"
  
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ kudusql completion fish | source
  
  # To load completions for each session, execute once:
  $ kudusql completion fish > ~/.config/fish/completions/kudusql.fish

PowerShell:
  PS> kudusql completion powershell | Out-String | Invoke-Expression
  
  # To load completions for every new session, run:
  PS> kudusql completion powershell > kudusql.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}
