package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/saulo-duarte/chronos-autopilot/internal/meeting"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func writeDocuments(w io.Writer, format string, docs []meeting.DocumentStatus) error {
	switch strings.ToLower(format) {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tDONE\tTITLE")
		for _, d := range docs {
			done := ""
			if d.Processed {
				done = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.CreatedAt.Local().Format("2006-01-02 15:04"), done, d.Title)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeOutcome(w io.Writer, o *meeting.Outcome) {
	fmt.Fprintf(w, "Processed %q (%s)\n", o.Document.Title, o.Document.ID)
	if len(o.Result.TicketIDs) > 0 {
		fmt.Fprintf(w, "  tickets: %s\n", strings.Join(o.Result.TicketIDs, ", "))
	}
	if o.Result.NotificationRef != "" {
		fmt.Fprintf(w, "  notification: %s\n", o.Result.NotificationRef)
	}
	fmt.Fprintf(w, "  run: %s\n", o.Result.RunID)
}
