package cli

import (

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Version is the release of the pictoboard CLI.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/pictoboard"

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pictoboard version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := struct {
				Version       string `json:"version"`
				Module        string `json:"module"`
				SchemaVersion int    `json:"schemaVersion"`
			}{Version, modulePath, types.SchemaVersion}
			return a.emit(cmd, info, func(p *printer) {
				p.linef("pictoboard v%s", Version)
				p.linef("module: %s", modulePath)
				p.linef("schema: v%d", types.SchemaVersion)
			})
		},
	}
}

