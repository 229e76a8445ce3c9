package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/kudusql/internal/cli"
	"github.com/leapstack-labs/kudusql/internal/config"
)

// generateCLIDocs writes index.md plus one page per top-level command.
// A page covers the command and every subcommand below it.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range documented(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), content, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// documented returns the visible subcommands of cmd.
func documented(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || strings.HasPrefix(sub.Name(), "__") {
			continue
		}
		out = append(out, sub)
	}
	return out
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line reference for kudusql")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "kudusql <command> [subcommand] [options]")

	for _, group := range root.Groups() {
		w.Header(2, strings.TrimSuffix(group.Title, ":"))
		var rows [][]string
		for _, cmd := range documented(root) {
			if cmd.GroupID != group.ID {
				continue
			}
			link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
			rows = append(rows, []string{link, cleanDescription(cmd.Short)})
		}
		w.Table([]string{"Command", "Description"}, rows)
	}

	w.Header(2, "Connection and Project Options")
	w.Paragraph("Every command accepts these flags. Each one overrides a key of " +
		InlineCode(config.ConfigFileName) + ", which can also be set from the environment; " +
		"a " + InlineCode(".env") + " file next to the config file is read first.")
	globalOptionsTable(w, root.PersistentFlags())

	w.Header(2, "Exit Status")
	w.Paragraph("kudusql exits 0 on success. On failure it prints " + InlineCode("Error: ...") +
		" to stderr and exits 1; a failed rebuild names the step and the id to pass to " +
		InlineCode("kudusql rebuild resume") + ".")
	return w.Bytes()
}

// globalOptionsTable lists the root flags with the config key and the
// environment variable each one overrides.
func globalOptionsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	defaults := config.Defaults()
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		key, env := "-", "-"
		if k := config.FlagKey(f.Name); hasKey(defaults, k) {
			key, env = InlineCode(k), InlineCode(config.EnvVar(k))
		}
		rows = append(rows, []string{flagName(f), key, env, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Config key", "Environment", "Description"}, rows)
}

func hasKey(defaults map[string]any, key string) bool {
	_, ok := defaults[key]
	return ok
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()
	w.Header(1, cmd.Name())
	writeCommand(w, cmd, 2)
	return w.Bytes()
}

// writeCommand documents cmd, then each runnable subcommand under its own
// heading one level down.
func writeCommand(w *MarkdownWriter, cmd *cobra.Command, level int) {
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}
	if len(cmd.Aliases) > 0 {
		w.Paragraph("Aliases: " + strings.Join(cmd.Aliases, ", "))
	}

	if cmd.Runnable() {
		w.CodeBlock("bash", cmd.UseLine())
		if cmd.HasAvailableLocalFlags() {
			localOptionsTable(w, cmd.LocalNonPersistentFlags())
		}
		if cmd.Example != "" {
			w.CodeBlock("bash", exampleText(cmd.Example))
		}
	}

	for _, sub := range documented(cmd) {
		w.Header(level, InlineCode(sub.CommandPath()))
		writeCommand(w, sub, level+1)
	}
}

func localOptionsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		def := "-"
		if f.DefValue != "" && f.DefValue != "[]" {
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{flagName(f), def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Default", "Description"}, rows)
}

func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return InlineCode("-"+f.Shorthand) + ", " + InlineCode("--"+f.Name)
	}
	return InlineCode("--" + f.Name)
}

// exampleText strips the two-space indent cobra examples are written with.
func exampleText(example string) string {
	lines := strings.Split(strings.Trim(example, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.Join(lines, "\n")
}
