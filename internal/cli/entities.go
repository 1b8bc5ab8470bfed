package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/admin"
)

type entityRow struct {
	Entity    string `json:"entity"`
	Label     string `json:"label"`
	Records   int    `json:"records"`
	Orderable bool   `json:"orderable"`
}

func newEntitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the entities and their record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				var rows []entityRow
				for _, p := range s.Pages() {
					rows = append(rows, entityRow{
						Entity:    string(p.Schema.Entity),
						Label:     p.Schema.Label,
						Records:   p.Store.Len(),
						Orderable: p.Schema.Orderable(),
					})
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ENTITY\tLABEL\tRECORDS\tORDERABLE")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", r.Entity, r.Label, r.Records, r.Orderable)
				}
				return tw.Flush()
			})
		},
	}
}
