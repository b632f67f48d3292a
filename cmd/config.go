package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gopunch/config"
)

const defaultConfigFileName = ".gopunch.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the gopunch configuration file.",
	Long: `Create, edit, display, and delete the gopunch configuration file.

The configuration holds the parser layouts and the conversion defaults:
- parser.layout / parser.layouts[].name, prefix_present, prefix_tokens, trailing_constants, encodings
- policy.single_punch_cutoff
- output.format / output.sentinels
- serve.port / serve.max_upload_mb / serve.cache_max_mb`,
	Example: `
  # Create default config in $HOME/.gopunch.yaml
  gopunch config create

  # Show active config and source file
  gopunch config show

  # Open active config in editor (creates example if missing)
  gopunch config edit

  # Delete active config file
  gopunch config delete
`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

Built-in defaults are shown when no config file is in use.
This command validates the configuration before printing values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		out := cmd.OutOrStdout()
		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Fprintln(out, "Config file loaded from:", configPath)
		} else {
			fmt.Fprintln(out, "No config file in use, showing built-in defaults.")
		}
		printConfig(out, *cfg)
		return nil
	},
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

If the target file already exists, it is left unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig(cmd.OutOrStdout())
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Example: `
  # Delete config at a custom path
  gopunch --configFile ./custom-gopunch.yaml config delete
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("delete configuration file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file deleted: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configDeleteCmd)
}

func saveDefaultConfig(out io.Writer) error {
	configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "New config file created at: %s\n", configPath)
		return nil
	}

	fmt.Fprintf(out, "Config file already exists at: %s\n", configPath)
	return nil
}

func printConfig(out io.Writer, cfg config.Config) {
	fmt.Fprintf(out, "%s: %s\n", config.KeyParserLayout, cfg.Parser.Layout)
	fmt.Fprintf(out, "%s: %d\n", config.KeyParserLayouts, len(cfg.Parser.Layouts))
	for i, layout := range cfg.Parser.Layouts {
		fmt.Fprintf(out, "parser.layouts[%d].name: %s\n", i, layout.Name)
		fmt.Fprintf(out, "parser.layouts[%d].prefix_present: %t\n", i, layout.PrefixPresent)
		fmt.Fprintf(out, "parser.layouts[%d].prefix_tokens: %d\n", i, layout.PrefixTokens)
		fmt.Fprintf(out, "parser.layouts[%d].trailing_constants: %d\n", i, layout.TrailingConstants)
		fmt.Fprintf(out, "parser.layouts[%d].encodings: %s\n", i, strings.Join(layout.Encodings, ", "))
	}
	fmt.Fprintf(out, "%s: %s\n", config.KeySinglePunchCutoff, cfg.Policy.SinglePunchCutoff)
	fmt.Fprintf(out, "%s: %s\n", config.KeyOutputFormat, cfg.Output.Format)
	fmt.Fprintf(out, "%s: %s\n", config.KeyOutputSentinels, cfg.Output.Sentinels)
	fmt.Fprintf(out, "%s: %d\n", config.KeyServePort, cfg.Serve.Port)
	fmt.Fprintf(out, "%s: %d\n", config.KeyServeMaxUploadMB, cfg.Serve.MaxUploadMB)
	fmt.Fprintf(out, "%s: %d\n", config.KeyServeCacheMaxMB, cfg.Serve.CacheMaxMB)
}
