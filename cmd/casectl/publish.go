package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <message>",
		Short: "Publish one event on behalf of an originator",
		Example: `  casectl publish "Workflow Execution Start" --originator wf-42 --data '{"step":1}'
  casectl publish "Action Execution Error" --originator act-7 --data "timeout"`,
		Args: cobra.ExactArgs(1),
	}
	originator := cmd.Flags().String("originator", "", "originator id (required)")
	data := cmd.Flags().String("data", "", "payload: JSON value or plain text")
	_ = cmd.MarkFlagRequired("originator")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		message := args[0]
		if err := opts.client().Publish(cmd.Context(), message, *originator, payload(*data)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %q from %s\n", message, *originator)
		return nil
	}
	return cmd
}

// payload передаёт корректный JSON как есть, остальное как текст
func payload(s string) any {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}
