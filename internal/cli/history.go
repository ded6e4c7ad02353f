package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/pkg/board"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func (a *app) historyCmd() *cobra.Command {
	var filter board.HistoryFilter
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List audit entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.Limit < 0 {
				return fmt.Errorf("%w: --limit must not be negative", types.ErrValidation)
			}
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := bd.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.emit(cmd, entries, func(p *printer) {
				p.row("TIME", "ACTION", "TYPE", "ENTITY", "BY", "FIELDS")
				for _, h := range entries {
					p.row(h.Timestamp.Local().Format(time.DateTime), h.Action, h.EntityType, h.EntityID,
						h.PerformedBy, strings.Join(audit.Fields(h.Changes), ","))
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.EntityType, "type", "", "only entries for this entity type")
	f.StringVar(&filter.EntityID, "id", "", "only entries for this entity")
	f.IntVar(&filter.Limit, "limit", 20, "maximum entries (0 for all)")
	return cmd
}
