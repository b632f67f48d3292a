package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gopunch/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active gopunch config file in your editor.

The editor is taken from $VISUAL, then $EDITOR, and falls back to vi.

A missing config file is created from the example template first.
After the editor exits, the file is validated: layouts, cutoff, output and serve settings.`,
	Example: `
  # Edit active config
  gopunch config edit

  # Edit with a one-off editor
  VISUAL="code --wait" gopunch config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		editorCommand, err := editorCommand(os.Getenv, configPath)
		if err != nil {
			return err
		}
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("run editor: %w", err)
		}

		if err := validateConfigFile(configPath); err != nil {
			return err
		}
		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	for _, candidate := range []string{configFileFlag, configFileUsed} {
		if strings.TrimSpace(candidate) != "" {
			return candidate, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigFileName), nil
}

// ensureConfigFileWithTemplate reports whether a new file was written.
func ensureConfigFileWithTemplate(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("write example config: %w", err)
	}
	return true, nil
}

func validateConfigFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read edited config: %w", err)
	}
	if _, err := config.ValidateYAMLContent(content); err != nil {
		return fmt.Errorf("config validation failed in %s: %w", path, err)
	}
	return nil
}

// editorEnv lists the variables consulted for the editor, in priority order.
var editorEnv = []string{"VISUAL", "EDITOR"}

const defaultEditor = "vi"

// editorCommand builds the editor invocation for path. The first non-blank variable of
// editorEnv wins; its value may carry arguments such as "code --wait".
func editorCommand(getenv func(string) string, path string) (*exec.Cmd, error) {
	argv := []string{defaultEditor}
	for _, name := range editorEnv {
		if fields := strings.Fields(getenv(name)); len(fields) > 0 {
			argv = fields
			break
		}
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	return exec.Command(argv[0], append(argv[1:], path)...), nil
}
