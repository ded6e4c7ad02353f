package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/pkg/overlay"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func (a *app) pictogramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pictogram",
		Aliases: []string{"picto"},
		Short:   "Manage pictograms",
	}
	cmd.AddCommand(a.pictogramAddCmd(), a.pictogramListCmd(), a.deleteCmd(types.EntityPictogram), a.pictogramMoveCmd())
	return cmd
}

func (a *app) pictogramAddCmd() *cobra.Command {
	var (
		p    types.Pictogram
		text map[string]string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a pictogram to a binder",
		Example: "  pictoboard pictogram add --binder <id> --text en-US=apple,fr-FR=pomme --category <id>",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			p.Properties = types.Properties{}
			addText(p.Properties, types.FieldText, text)
			if _, err := bd.CreatePictogram(cmd.Context(), &p); err != nil {
				return err
			}
			return a.emit(cmd, &p, func(pr *printer) {
				pr.linef("Created pictogram: %s", p.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Binder, "binder", "", "binder ID (required)")
	f.StringVar(&p.Image, "image", "", "image reference")
	f.StringVar(&p.Sound, "sound", "", "sound reference")
	f.BoolVar(&p.IsFavorite, "favorite", false, "mark as favorite")
	f.IntVar(&p.Order, "order", 0, "display position in the binder")
	f.StringToStringVar(&text, "text", nil, "text per language (lang=text,...)")
	f.StringSliceVar(&p.Categories, "category", nil, "category IDs")
	cmd.MarkFlagRequired("binder")
	return cmd
}

func (a *app) pictogramListCmd() *cobra.Command {
	var binderID, lang string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pictograms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			pictograms, err := bd.ListPictograms(cmd.Context(), binderID)
			if err != nil {
				return err
			}
			views := overlay.ResolvePictograms(pictograms, a.language(lang))
			return a.emit(cmd, views, func(p *printer) {
				p.row("ID", "BINDER", "ORDER", "TEXT", "CATEGORIES")
				for _, v := range views {
					p.row(v.ID, v.Binder, strconv.Itoa(v.Order), v.Text, strings.Join(v.Categories, ","))
				}
			})
		},
	}
	cmd.Flags().StringVar(&binderID, "binder", "", "only this binder's pictograms, in display order")
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default from config)")
	return cmd
}

func (a *app) pictogramMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <pictogram-id> <binder-id>",
		Short: "Move a pictogram to another binder, keeping its categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := bd.MovePictogram(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			result := map[string]string{"pictogram": args[0], "binder": args[1]}
			return a.emit(cmd, result, func(p *printer) {
				p.linef("Moved pictogram %s to binder %s", args[0], args[1])
			})
		},
	}
}
