package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reelcast/internal/models"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the Instagram connection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			switch {
			case status.Connected && status.Username != nil:
				fmt.Fprintf(out, "Connected as @%s\n", *status.Username)
			case status.Connected:
				fmt.Fprintln(out, "Connected")
			default:
				fmt.Fprintln(out, "Not connected")
			}
			return nil
		},
	}
}

func newConnectCommand(ctx *commandContext) *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Log in to Instagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
			if err != nil {
				return err
			}
			resp, err := ctx.client().Connect(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (@%s)\n", resp.Message, resp.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Instagram username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newDisconnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Drop the Instagram session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected from Instagram")
			return nil
		},
	}
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var style, duration string

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a video from a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoURL, err := ctx.client().Generate(cmd.Context(), models.GenerateVideoRequest{
				Prompt:   strings.Join(args, " "),
				Style:    style,
				Duration: duration,
			})
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd.OutOrStdout(), models.GenerateVideoResponse{VideoURL: videoURL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), videoURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Visual style (default cinematic)")
	cmd.Flags().StringVar(&duration, "duration", "", "Duration in seconds: 3 or 5")
	return cmd
}

func newPostCommand(ctx *commandContext) *cobra.Command {
	var caption string

	cmd := &cobra.Command{
		Use:   "post <video-url>",
		Short: "Publish a generated video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Publish(cmd.Context(), args[0], caption)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (post %s)\n", resp.Message, resp.PostID)
			return nil
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Post caption")
	return cmd
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var caption, at string
	var in time.Duration

	cmd := &cobra.Command{
		Use:   "schedule <prompt>",
		Short: "Generate and publish a video at a later time",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := resolveScheduleTime(at, in, time.Now())
			if err != nil {
				return err
			}
			job, err := ctx.client().Schedule(cmd.Context(), strings.Join(args, " "), caption, when)
			if err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd.OutOrStdout(), job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s for %s\n", job.ID, job.ScheduledTime.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Post caption")
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 time to publish at")
	cmd.Flags().DurationVar(&in, "in", 0, "Publish after this delay, e.g. 90m")
	return cmd
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "jobs [id]",
		Aliases: []string{"list"},
		Short:   "List scheduled posts",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobs []models.Job
			if len(args) == 1 {
				job, err := ctx.client().Job(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				jobs = []models.Job{*job}
			} else {
				list, err := ctx.client().Jobs(cmd.Context())
				if err != nil {
					return err
				}
				jobs = list
			}
			out := cmd.OutOrStdout()
			if ctx.json {
				return writeJSON(out, jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No scheduled posts")
				return nil
			}
			fmt.Fprintln(out, renderJobs(jobs, shouldColorize(out), time.Now()))
			return nil
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "cancel <id>",
		Aliases: []string{"delete"},
		Short:   "Cancel and remove a scheduled post",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Post deleted successfully")
			return nil
		},
	}
}

func resolveScheduleTime(at string, in time.Duration, now time.Time) (time.Time, error) {
	at = strings.TrimSpace(at)
	switch {
	case at != "" && in != 0:
		return time.Time{}, errors.New("use either --at or --in, not both")
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --at: %w", err)
		}
		return t, nil
	case in > 0:
		return now.Add(in), nil
	default:
		return time.Time{}, errors.New("a publish time is required (--at or --in)")
	}
}

func readPassword(in io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	if !fromStdin {
		if file, ok := in.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
			fmt.Fprint(prompt, "Password: ")
		}
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
