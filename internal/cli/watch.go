package cli

import (
	"encoding/json"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/pkg/board"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		lang  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "watch <binder-id>",
		Short: "Print the resolved binder every time it changes",
		Long: "Subscribes to the binder and prints one line per change until interrupted.\n" +
			"With --json each line is the full resolved view.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			bd, err := a.open(ctx)
			if err != nil {
				return err
			}
			sub := bd.WatchView(args[0], a.language(lang))
			defer sub.Close()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			seen := 0
			for {
				select {
				case <-ctx.Done():
					return nil
				case snap, ok := <-sub.Updates():
					if !ok {
						return nil
					}
					switch snap.Status {
					case board.Failed:
						return snap.Err
					case board.Pending:
						continue
					}
					if a.flags.jsonMode {
						if err := enc.Encode(snap.Value); err != nil {
							return err
						}
					} else {
						p := &printer{w: out}
						p.linef("#%d %s: %d pictograms, %d categories", snap.Seq,
							snap.Value.Binder.Title, len(snap.Value.Pictograms), len(snap.Value.Categories))
					}
					seen++
					if count > 0 && seen >= count {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default from config)")
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many updates (0 to run until interrupted)")
	return cmd
}
