package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coderefs/internal/config"
	"coderefs/internal/docset"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or check the inventory config",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a config file with default settings and one example docset.

Examples:
  coderefs config init
  coderefs --config inventory.json config init --force`,
	Run: runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and load every docset",
	Run:   runConfigCheck,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(configFile); err == nil && !configForce {
		fmt.Fprintf(os.Stderr, "%s already exists, use --force to overwrite\n", configFile)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.Content = []config.Docset{{
		Repo:           "MicrosoftDocs/azure-docs",
		Path:           "${" + config.EnvRepoRoot + "}/azure-docs",
		OpcFolder:      ".",
		DocfxFolder:    "articles",
		URL:            "https://learn.microsoft.com/azure",
		ExcludeFolders: []string{"includes"},
	}}

	if err := cfg.Save(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", configFile)
}

func runConfigCheck(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	mustGetRepoRoot()

	failed := 0
	for _, entry := range cfg.Content {
		ds, err := docset.Load(entry, cfg.Metadata.Fields, logger)
		if err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", entry.Repo, err)
			continue
		}
		defaults := 0
		if ds.Defaults != nil {
			defaults = ds.Defaults.Fields()
		}
		fmt.Printf("✓ %s: %d repositories, %d defaulted fields\n", ds.Name(), ds.Repos.Len(), defaults)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
