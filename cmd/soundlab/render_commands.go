package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundlab/internal/ipc"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Queue and inspect offline mixdowns",
	}

	var soloLanes []string
	var sampleRate int
	var channels int
	startCmd := &cobra.Command{
		Use:   "start <session-id>",
		Short: "Queue a mixdown of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RenderStart(ipc.RenderStartRequest{
					SessionID:  id,
					SampleRate: sampleRate,
					Channels:   channels,
					SoloLanes:  soloLanes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Render job %s queued for session %d\n", resp.Job.ID, resp.Job.SessionID)
				return nil
			})
		},
	}
	startCmd.Flags().StringSliceVar(&soloLanes, "solo", nil, "Render only these lanes (voice, music, sfx, ambience)")
	startCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Output sample rate (defaults to configured rate)")
	startCmd.Flags().IntVar(&channels, "channels", 0, "Output channel count (defaults to configured count)")

	var statusFilters []string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RenderList(statusFilters)
				if err != nil {
					return err
				}
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(stdout, "No render jobs")
					return nil
				}
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						job.ID,
						strconv.FormatInt(job.SessionID, 10),
						job.Status,
						strconv.Itoa(job.ProgressPercent) + "%",
						job.OutputPath,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Job", "Session", "Status", "Progress", "Output"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	listCmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (pending, rendering, completed, failed)")

	showCmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RenderDescribe(args[0])
				if err != nil {
					return err
				}
				job := resp.Job
				fmt.Fprintf(stdout, "Job:      %s\n", job.ID)
				fmt.Fprintf(stdout, "Session:  %d\n", job.SessionID)
				fmt.Fprintf(stdout, "Status:   %s\n", job.Status)
				fmt.Fprintf(stdout, "Progress: %d%%\n", job.ProgressPercent)
				if job.ProgressMessage != "" {
					fmt.Fprintf(stdout, "Message:  %s\n", job.ProgressMessage)
				}
				if job.OutputPath != "" {
					fmt.Fprintf(stdout, "Output:   %s\n", job.OutputPath)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(stdout, "Error:    %s\n", job.ErrorMessage)
				}
				return nil
			})
		},
	}

	renderCmd.AddCommand(startCmd, listCmd, showCmd)
	return renderCmd
}
