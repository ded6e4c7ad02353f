package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/pkg/overlay"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// addText stores per-language values for key, as given by a
// --title en-US=Home,fr-FR=Maison style flag.
func addText(props types.Properties, key string, byLang map[string]string) {
	for lang, value := range byLang {
		props.Set(lang, key, value)
	}
}

func (a *app) binderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "binder",
		Short: "Manage binders",
	}
	cmd.AddCommand(a.binderCreateCmd(), a.binderListCmd(), a.binderShowCmd(), a.deleteCmd(types.EntityBinder))
	return cmd
}

func (a *app) binderCreateCmd() *cobra.Command {
	var (
		b           types.Binder
		title, desc map[string]string
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a binder",
		Example: "  pictoboard binder create --author ana --title en-US=Home,fr-FR=Maison",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			b.Properties = types.Properties{}
			addText(b.Properties, types.FieldTitle, title)
			addText(b.Properties, types.FieldDescription, desc)
			if _, err := bd.CreateBinder(cmd.Context(), &b); err != nil {
				return err
			}
			return a.emit(cmd, &b, func(p *printer) {
				p.linef("Created binder: %s", b.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&b.Author, "author", "", "author user ID or name (required)")
	f.StringVar(&b.Image, "image", "", "cover image reference")
	f.BoolVar(&b.IsFavorite, "favorite", false, "mark as favorite")
	f.StringToStringVar(&title, "title", nil, "title per language (lang=text,...)")
	f.StringToStringVar(&desc, "description", nil, "description per language (lang=text,...)")
	f.StringSliceVar(&b.Users, "share", nil, "user IDs to share the binder with")
	cmd.MarkFlagRequired("author")
	return cmd
}

func (a *app) binderListCmd() *cobra.Command {
	var author, lang string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List binders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			binders, err := bd.ListBinders(cmd.Context(), author)
			if err != nil {
				return err
			}
			views := make([]overlay.BinderView, 0, len(binders))
			for _, b := range binders {
				views = append(views, overlay.ResolveBinder(b, a.language(lang)))
			}
			return a.emit(cmd, views, func(p *printer) {
				p.row("ID", "TITLE", "AUTHOR", "PICTOGRAMS", "FAVORITE")
				for _, v := range views {
					p.row(v.ID, v.Title, v.Author, strconv.Itoa(len(v.Pictograms)), yesNo(v.IsFavorite))
				}
			})
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "only binders by this author")
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default from config)")
	return cmd
}

func (a *app) binderShowCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "show <binder-id>",
		Short: "Show a binder with its pictograms and categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			v, err := bd.View(cmd.Context(), args[0], a.language(lang))
			if err != nil {
				return err
			}
			return a.emit(cmd, v, func(p *printer) {
				p.linef("%s (%s)", v.Binder.Title, v.Binder.ID)
				if v.Binder.Description != "" {
					p.linef("%s", v.Binder.Description)
				}
				for _, c := range v.Categories {
					p.linef("  [%s] %s", c.ID, c.Title)
				}
				p.row("ORDER", "ID", "TEXT", "CATEGORIES")
				for _, pv := range v.Pictograms {
					p.row(strconv.Itoa(pv.Order), pv.ID, pv.Text, strconv.Itoa(len(pv.Categories)))
				}
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default from config)")
	return cmd
}

// deleteCmd removes one entity of entityType through the integrity engine.
func (a *app) deleteCmd(entityType string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + entityType + " and everything that depends on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := bd.Delete(cmd.Context(), entityType, args[0]); err != nil {
				return err
			}
			result := map[string]string{"deleted": args[0], "type": entityType}
			return a.emit(cmd, result, func(p *printer) {
				p.linef("Deleted %s: %s", entityType, args[0])
			})
		},
	}
}
