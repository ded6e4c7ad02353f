package cli

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/internal/seed"
)

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every collection to <dir> as JSONL files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := bd.Export(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"exported": args[0]}, func(p *printer) {
				p.linef("Exported to %s", args[0])
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load JSONL files written by export into an empty store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := bd.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, stats, func(p *printer) {
				names := make([]string, 0, len(stats))
				for name := range stats {
					names = append(names, name)
				}
				sort.Strings(names)
				p.row("COLLECTION", "RECORDS")
				for _, name := range names {
					p.row(name, strconv.Itoa(stats[name]))
				}
			})
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [board.yaml]",
		Short: "Create binders, categories and pictograms from a board file",
		Long:  "Without a file, installs the built-in starter board.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := seed.Starter()
			if len(args) == 1 {
				var err error
				if f, err = seed.ParseFile(args[0]); err != nil {
					return err
				}
			}
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), bd, f, a.log.Named("seed"))
			if err != nil {
				return err
			}
			return a.emit(cmd, res, func(p *printer) {
				p.linef("Seeded %d binders, %d categories, %d pictograms",
					len(res.Binders), len(res.Categories), res.Pictograms)
			})
		},
	}
}
