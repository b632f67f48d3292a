/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gopunch/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gopunch",
	Short: "Convert fingerprint punch-clock logs into daily check-in/check-out spreadsheets.",
	Long: `
**********************************************
*              GO PUNCH GO                   *
**********************************************

This CLI reads raw fingerprint terminal logs (one scan per line), derives one check-in and
one check-out per employee and day, and exports the attendance table to Excel or CSV.

Supported input:
- whitespace-delimited text exports in the configured layouts
- encodings: UTF-8, UTF-16 (with BOM), Windows-1256

Rules:
- two or more punches on a day: first is the check-in, last is the check-out
- one punch at or before 14:00:00: check-in with "no logout"
- one punch after 14:00:00: check-out with "no login"
`,
	Example: `
  # Create configuration file
  gopunch config create

  # Convert a punch log into an Excel attendance table
  gopunch convert -i punches.txt -o attendance.xlsx

  # Preview the table and malformed lines without writing a file
  gopunch preview -i punches.txt

  # List the configured line layouts
  gopunch layouts

  # Start the upload UI
  gopunch serve --port 8080
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.gopunch.yaml, then ./.gopunch.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".gopunch" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gopunch")
	}

	viper.SetEnvPrefix("GOPUNCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Built-in defaults apply when no config file is found.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: could not read config file %s: %v\n", cfgFile, err)
	}
}
