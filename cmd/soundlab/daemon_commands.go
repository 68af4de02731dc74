package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"soundlab/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the soundlab daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			if err := ctx.withClient(func(client *ipc.Client) error { return nil }); err == nil {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(ctx, exe); err != nil {
				return err
			}
			if err := waitForSocket(ctx, 10*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the soundlab daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			err := ctx.withClient(func(client *ipc.Client) error {
				_, err := client.Stop()
				return err
			})
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and render queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				fmt.Fprintf(stdout, "Daemon running: %s\n", yesNo(status.Running))
				fmt.Fprintf(stdout, "Render worker:  %s\n", yesNo(status.WorkerRunning))
				fmt.Fprintf(stdout, "Session DB:     %s\n", status.SessionDBPath)
				fmt.Fprintf(stdout, "Lock file:      %s\n", status.LockPath)

				if len(status.JobStats) == 0 {
					fmt.Fprintln(stdout, "Render queue is empty")
					return nil
				}

				statuses := make([]string, 0, len(status.JobStats))
				for name := range status.JobStats {
					statuses = append(statuses, name)
				}
				sort.Strings(statuses)
				rows := make([][]string, 0, len(statuses))
				for _, name := range statuses {
					rows = append(rows, []string{name, strconv.Itoa(status.JobStats[name])})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

// daemonExecutable locates soundlabd next to the CLI binary, falling back to
// PATH lookup.
func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err == nil {
		sibling := filepath.Join(filepath.Dir(exe), "soundlabd")
		if _, statErr := os.Stat(sibling); statErr == nil {
			return sibling, nil
		}
	}
	path, err := exec.LookPath("soundlabd")
	if err != nil {
		return "", fmt.Errorf("locate soundlabd: %w", err)
	}
	return path, nil
}

func launchDaemon(ctx *commandContext, exe string) error {
	cmd := exec.Command(exe)
	if ctx.configFlag != nil && *ctx.configFlag != "" {
		cmd.Env = append(os.Environ(), "SOUNDLAB_CONFIG="+*ctx.configFlag)
	}
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch soundlabd: %w", err)
	}
	return cmd.Process.Release()
}

func waitForSocket(ctx *commandContext, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ctx.dialClient()
		if err == nil {
			_ = client.Close()
			return nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not come up within %s", timeout)
}
