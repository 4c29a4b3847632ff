package cmd

import (
	"fmt"
	"os"

	"github.com/pgschema/supaextract/cmd/extract"
	"github.com/pgschema/supaextract/cmd/setup"
	"github.com/pgschema/supaextract/cmd/util"
	"github.com/pgschema/supaextract/internal/color"
	"github.com/pgschema/supaextract/internal/logger"
	"github.com/pgschema/supaextract/internal/render"
	"github.com/pgschema/supaextract/internal/version"
	"github.com/spf13/cobra"
)

var Debug bool
var ConfigFile string

var RootCmd = &cobra.Command{
	Use:   "supaextract",
	Short: "Extract RLS policies, functions and triggers from a Supabase database",
	Long: fmt.Sprintf(`supaextract reads row level security policies, functions and triggers from a
Supabase database and writes a SQL script that recreates them.

Version: %s

Commands:
  setup     Print or install the extractor functions
  extract   Extract metadata and write the export script

Use "supaextract [command] --help" for more information about a command.`, version.String()),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default ./supaextract.yaml)")
	RootCmd.AddCommand(setup.SetupCmd)
	RootCmd.AddCommand(extract.ExtractCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	logger.SetGlobal(logger.New(os.Stderr, Debug), Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		render.Notify(os.Stderr, render.FromError(err), color.New(util.ColorEnabled(false)))
		os.Exit(1)
	}
}
