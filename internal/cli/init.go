package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/internal/paths"
)

func (a *app) initCmd() *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize pictoboard storage",
		Long: "Create the configuration and data directories, write a default config.yaml\n" +
			"if none exists, then create the database.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}

			dataFlag := a.flags.dataDir
			if dataFlag == "" && global && a.config.GetString(cfgKeyDataDir) == "" {
				if dataFlag, err = paths.DefaultDataDir(); err != nil {
					return fmt.Errorf("resolve data dir: %w", err)
				}
				a.flags.dataDir = dataFlag
			}
			cfg, err := a.storeConfig()
			if err != nil {
				return err
			}

			wrote, err := writeConfigIfMissing(configDir, cfg.DataDir)
			if err != nil {
				return err
			}
			if _, err := a.open(cmd.Context()); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}

			result := struct {
				ConfigDir     string `json:"configDir"`
				DataDir       string `json:"dataDir"`
				ConfigWritten bool   `json:"configWritten"`
			}{configDir, cfg.DataDir, wrote}
			return a.emit(cmd, result, func(p *printer) {
				p.linef("Pictoboard initialized")
				p.linef("  config: %s", paths.ConfigFile(configDir))
				p.linef("  data:   %s", cfg.DataDir)
			})
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "keep data in the platform data directory instead of the current directory")
	return cmd
}
