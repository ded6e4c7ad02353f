package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/pkg/overlay"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func (a *app) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories and their pictograms",
	}
	cmd.AddCommand(
		a.categoryCreateCmd(),
		a.categoryListCmd(),
		a.deleteCmd(types.EntityCategory),
		a.categoryEdgeCmd("assign", "Add a pictogram to a category"),
		a.categoryEdgeCmd("unassign", "Remove a pictogram from a category"),
	)
	return cmd
}

func (a *app) categoryCreateCmd() *cobra.Command {
	var (
		c     types.Category
		title map[string]string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			c.Properties = types.Properties{}
			addText(c.Properties, types.FieldTitle, title)
			if _, err := bd.CreateCategory(cmd.Context(), &c); err != nil {
				return err
			}
			return a.emit(cmd, &c, func(p *printer) {
				p.linef("Created category: %s", c.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Image, "image", "", "image reference")
	f.StringToStringVar(&title, "title", nil, "title per language (lang=text,...)")
	f.StringSliceVar(&c.Pictograms, "pictogram", nil, "pictogram IDs to assign")
	return cmd
}

func (a *app) categoryListCmd() *cobra.Command {
	var binderID, lang string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			var categories []*types.Category
			if binderID != "" {
				categories, err = bd.CategoriesForBinder(cmd.Context(), binderID)
			} else {
				categories, err = bd.ListCategories(cmd.Context())
			}
			if err != nil {
				return err
			}
			views := overlay.ResolveCategories(categories, a.language(lang))
			return a.emit(cmd, views, func(p *printer) {
				p.row("ID", "TITLE", "PICTOGRAMS")
				for _, v := range views {
					p.row(v.ID, v.Title, strconv.Itoa(len(v.Pictograms)))
				}
			})
		},
	}
	cmd.Flags().StringVar(&binderID, "binder", "", "only categories used by this binder's pictograms")
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default from config)")
	return cmd
}

// categoryEdgeCmd builds assign and unassign, which differ only in the
// engine call.
func (a *app) categoryEdgeCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <category-id> <pictogram-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			categoryID, pictogramID := args[0], args[1]
			if verb == "assign" {
				err = bd.AssignCategory(cmd.Context(), categoryID, pictogramID)
			} else {
				err = bd.UnassignCategory(cmd.Context(), categoryID, pictogramID)
			}
			if err != nil {
				return err
			}
			result := map[string]string{"action": verb, "category": categoryID, "pictogram": pictogramID}
			return a.emit(cmd, result, func(p *printer) {
				p.linef("%s: pictogram %s, category %s", verb, pictogramID, categoryID)
			})
		},
	}
}
