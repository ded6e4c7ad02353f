package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func (a *app) settingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write validated preferences",
	}
	cmd.AddCommand(a.settingGetCmd(), a.settingSetCmd(), a.settingListCmd(), a.deleteCmd(types.EntitySetting))
	return cmd
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (a *app) settingGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			s := bd.Setting(cmd.Context(), args[0])
			if s == nil {
				return fmt.Errorf("%w: setting %q", types.ErrNotFound, args[0])
			}
			return a.emit(cmd, s, func(p *printer) {
				p.linef("%s", compact(s.Value))
			})
		},
	}
}

func (a *app) settingSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and store a setting",
		Long: "The value is parsed as JSON; anything that is not valid JSON is stored as\n" +
			"a string. Known keys (theme, locale, accessibility, fontScale) have their\n" +
			"own schema.",
		Example: `  pictoboard setting set theme '{"mode":"dark"}'
  pictoboard setting set fontScale 1.25`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := bd.SetSetting(cmd.Context(), args[0], value); err != nil {
				return err
			}
			s := types.Setting{Key: args[0], Value: value}
			return a.emit(cmd, s, func(p *printer) {
				p.linef("Saved setting: %s", s.Key)
			})
		},
	}
}

func (a *app) settingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every readable setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			all, err := bd.Settings(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd, all, func(p *printer) {
				p.row("KEY", "VALUE")
				for _, s := range all {
					p.row(s.Key, compact(s.Value))
				}
			})
		},
	}
}
