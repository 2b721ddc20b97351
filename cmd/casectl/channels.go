package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newChannelsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List channels registered on the host",
		Args:  cobra.NoArgs,
	}
	format := cmd.Flags().String("format", "text", "Output format: text | json")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		channels, err := opts.client().Channels(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch *format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(channels)
		case "text":
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tNAME\tDESCRIPTION\tAUDITED")
			for _, ch := range channels {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", ch.Category, ch.Name, ch.Description, ch.Audited)
			}
			return tw.Flush()
		default:
			return fmt.Errorf("unknown format %q", *format)
		}
	}
	return cmd
}
