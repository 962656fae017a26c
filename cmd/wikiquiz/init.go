package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/config"
	"github.com/wikiquiz/wikiquiz/internal/home"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the home directory and a default config file",
	Long: `Initialize the wikiquiz home directory (~/.wikiquiz) and write a
default config.yaml with the provider, wiki, and storage defaults.

Secrets in the generated file use ${ENV_VAR} references and are resolved
from the environment at load time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", h.ConfigPath())
		}

		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
