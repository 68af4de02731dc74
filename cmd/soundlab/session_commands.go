package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundlab/internal/ipc"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage saved sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionList()
				if err != nil {
					return err
				}
				if len(resp.Sessions) == 0 {
					fmt.Fprintln(stdout, "No saved sessions")
					return nil
				}
				rows := make([][]string, 0, len(resp.Sessions))
				for _, sess := range resp.Sessions {
					rows = append(rows, []string{
						strconv.FormatInt(sess.ID, 10),
						sess.Name,
						strconv.Itoa(sess.Clips),
						formatSeconds(sess.Duration),
						sess.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Name", "Clips", "Duration", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session's lane breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionDescribe(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Session %d: %s\n", resp.ID, resp.Name)
				fmt.Fprintf(stdout, "Duration: %s\n", formatSeconds(resp.Duration))
				fmt.Fprintf(stdout, "Updated:  %s\n", resp.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

				rows := make([][]string, 0, len(resp.Lanes))
				for _, lane := range resp.Lanes {
					rows = append(rows, []string{
						lane.Lane,
						strconv.Itoa(lane.Clips),
						yesNo(lane.Muted),
						yesNo(lane.Collapsed),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Lane", "Clips", "Muted", "Collapsed"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SessionDelete(id); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Session %d deleted\n", id)
				return nil
			})
		},
	}

	sessionCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return sessionCmd
}

func formatSeconds(seconds float64) string {
	total := int(seconds + 0.5)
	minutes := total / 60
	secs := total % 60
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
