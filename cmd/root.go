/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/longkey1/llmchat/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmchat",
	Short: "A terminal chat widget for the Gemini API",
	Long: `llmchat is a small chat widget for the Gemini generative language API.
Each turn sends your message (and optionally one image) together with the
configured assistant persona, and prints the reply.

Your API key is stored locally; set it with 'llmchat key set'.
You can configure the tool using a TOML configuration file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/llmchat/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// userConfigDir returns $HOME/.config/llmchat
func userConfigDir() string {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	return filepath.Join(home, ".config", "llmchat")
}

// systemConfigDirs are searched in order; the first config.toml found is used
var systemConfigDirs = []string{"/etc/llmchat", "/usr/local/etc/llmchat"}

// readConfigFiles reads the first system-wide config.toml and merges the
// user's config.toml from userDir on top of it. Missing files are skipped.
// It returns the files that were loaded, lowest priority first.
func readConfigFiles(v *viper.Viper, systemDirs []string, userDir string) ([]string, error) {
	var used []string
	v.SetConfigType("toml")

	for _, dir := range systemDirs {
		path := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return used, fmt.Errorf("reading %s: %w", path, err)
		}
		used = append(used, path)
		break
	}

	userPath := filepath.Join(userDir, "config.toml")
	if _, err := os.Stat(userPath); err != nil {
		return used, nil
	}
	// SetConfigFile is required: MergeInConfig would otherwise re-read the cached system file
	v.SetConfigFile(userPath)
	read := v.ReadInConfig
	if len(used) > 0 {
		read = v.MergeInConfig
	}
	if err := read(); err != nil {
		return used, fmt.Errorf("reading %s: %w", userPath, err)
	}
	return append(used, userPath), nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// LLMCHAT_GENERATION_MODEL overrides generation.model, and so on
	viper.SetEnvPrefix("LLMCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	dir := userConfigDir()
	config.SetDefaults(viper.GetViper(), config.NewDefaultConfig(dir))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		used, err := readConfigFiles(viper.GetViper(), systemConfigDirs, dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
		if verbose {
			for _, path := range used {
				fmt.Fprintln(os.Stderr, "Loaded config:", path)
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  LLMCHAT_GENERATION_MODEL:", viper.GetString("generation.model"))
		fmt.Fprintln(os.Stderr, "  LLMCHAT_BASE_URL:", viper.GetString("base_url"))
		fmt.Fprintln(os.Stderr, "  LLMCHAT_PERSONA_NAME:", viper.GetString("persona.name"))
		fmt.Fprintln(os.Stderr, "  LLMCHAT_CREDENTIAL_BACKEND:", viper.GetString("credential.backend"))
	}
}
