// Package cli holds what notesqa and notesqad share: the machine-readable
// --help-json output that lets scripts discover commands and flags.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const helpJSONFlag = "help-json"

// FlagSchema describes one flag.
type FlagSchema struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// CommandSchema describes a command and, recursively, its subcommands.
// Inherited lists persistent flags declared on an ancestor such as --api-url.
type CommandSchema struct {
	Name        string          `json:"name"`
	Use         string          `json:"use,omitempty"`
	Aliases     []string        `json:"aliases,omitempty"`
	Description string          `json:"description,omitempty"`
	Long        string          `json:"long,omitempty"`
	Example     string          `json:"example,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Inherited   []FlagSchema    `json:"inherited_flags,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

// GenerateSchema builds the schema for cmd and every visible subcommand.
func GenerateSchema(cmd *cobra.Command) CommandSchema {
	schema := CommandSchema{
		Name:        cmd.Name(),
		Use:         cmd.Use,
		Aliases:     cmd.Aliases,
		Description: cmd.Short,
		Long:        cmd.Long,
		Example:     cmd.Example,
		Flags:       collectFlags(cmd.LocalFlags()),
		Inherited:   collectFlags(cmd.InheritedFlags()),
	}

	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		schema.Subcommands = append(schema.Subcommands, GenerateSchema(sub))
	}

	return schema
}

func collectFlags(set *pflag.FlagSet) []FlagSchema {
	var flags []FlagSchema
	set.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == helpJSONFlag || f.Name == "help" {
			return
		}
		_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
		flags = append(flags, FlagSchema{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
			Description: f.Usage,
			Required:    required,
		})
	})
	return flags
}

// WriteSchema writes cmd's schema as indented JSON.
func WriteSchema(w io.Writer, cmd *cobra.Command) error {
	output, err := json.MarshalIndent(GenerateSchema(cmd), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// AddHelpJSONFlag registers --help-json on cmd and all its descendants.
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool(helpJSONFlag, false, "Output command schema as JSON")
}

// CheckHelpJSON prints the schema of the command named in os.Args and exits
// when --help-json is present. It runs before Execute so required positional
// arguments do not get in the way.
func CheckHelpJSON(rootCmd *cobra.Command) {
	target, ok := helpJSONTarget(rootCmd, os.Args[1:])
	if !ok {
		return
	}
	if err := WriteSchema(os.Stdout, target); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

// helpJSONTarget returns the command addressed by the words before
// --help-json, or false when the flag is absent.
func helpJSONTarget(root *cobra.Command, args []string) (*cobra.Command, bool) {
	for i, arg := range args {
		if arg == "--"+helpJSONFlag || strings.HasPrefix(arg, "--"+helpJSONFlag+"=") {
			return findCommand(root, args[:i]), true
		}
	}
	return nil, false
}

func findCommand(cmd *cobra.Command, words []string) *cobra.Command {
	for _, word := range words {
		if strings.HasPrefix(word, "-") {
			break
		}
		next := cmd
		for _, sub := range cmd.Commands() {
			if sub.Name() == word || sub.HasAlias(word) {
				next = sub
				break
			}
		}
		if next == cmd {
			break
		}
		cmd = next
	}
	return cmd
}
