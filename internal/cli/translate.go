package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) translateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Edit single overlay values on binders, categories and pictograms",
		Example: `  pictoboard translate set pictogram <id> fr-FR text pomme
  pictoboard translate delete pictogram <id> fr-FR text`,
	}
	cmd.AddCommand(
		a.translateWriteCmd("add", "Add a translation; fails if one exists"),
		a.translateWriteCmd("set", "Add or replace a translation"),
		a.translateDeleteCmd(),
	)
	return cmd
}

func (a *app) translateWriteCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <type> <id> <lang> <key> <value>",
		Short: short,
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			entityType, id, lang, key, value := args[0], args[1], args[2], args[3], args[4]
			if verb == "add" {
				err = bd.AddTranslation(cmd.Context(), entityType, id, lang, key, value)
			} else {
				err = bd.SetTranslation(cmd.Context(), entityType, id, lang, key, value)
			}
			if err != nil {
				return err
			}
			result := map[string]string{"type": entityType, "id": id, "lang": lang, "key": key, "value": value}
			return a.emit(cmd, result, func(p *printer) {
				p.linef("%s %s: %s.%s = %q", entityType, id, lang, key, value)
			})
		},
	}
}

func (a *app) translateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id> <lang> <key>",
		Short: "Remove a translation",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			entityType, id, lang, key := args[0], args[1], args[2], args[3]
			if err := bd.DeleteTranslation(cmd.Context(), entityType, id, lang, key); err != nil {
				return err
			}
			result := map[string]string{"type": entityType, "id": id, "lang": lang, "key": key, "action": "delete"}
			return a.emit(cmd, result, func(p *printer) {
				p.linef("Deleted %s.%s from %s %s", lang, key, entityType, id)
			})
		},
	}
}
