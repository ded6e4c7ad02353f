package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// printer writes human-readable output. Rows are aligned in columns when
// the command finishes.
type printer struct {
	w  io.Writer
	tw *tabwriter.Writer
}

func (p *printer) linef(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) row(cells ...string) {
	if p.tw == nil {
		p.tw = tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	}
	fmt.Fprintln(p.tw, strings.Join(cells, "\t"))
}

func (p *printer) flush() error {
	if p.tw == nil {
		return nil
	}
	return p.tw.Flush()
}

// emit writes v as indented JSON under --json, otherwise calls human.
func (a *app) emit(cmd *cobra.Command, v any, human func(p *printer)) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(w, v)
	}
	p := &printer{w: w}
	human(p)
	return p.flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
