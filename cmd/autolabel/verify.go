package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/autolabel/internal/gmail"
	"github.com/joshsymonds/autolabel/internal/gmailctl"
	"github.com/joshsymonds/autolabel/internal/rate"
	"github.com/joshsymonds/autolabel/internal/runtime"
	"github.com/joshsymonds/autolabel/internal/verify"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		opts   verify.Options
		source string
		failOn string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that exactly one filter carries the marker for a label",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			credDir := os.ExpandEnv(a.cfg.Gmailctl.ConfigDir)
			opts.MarkerPrefix = a.cfg.Marker.Prefix

			var client gmail.Client
			if source == "api" || opts.EnsureLabel {
				bucket := rate.NewTokenBucket(a.cfg.API.RPS)
				defer bucket.Stop()
				c, err := runtime.NewGmailClient(ctx, credDir, bucket)
				if err != nil {
					return fmt.Errorf("create gmail client: %w", err)
				}
				client = c
			}

			var src verify.Source
			switch source {
			case "api":
				src = verify.APISource{Client: client}
			case "gmailctl":
				src = &verify.ExportSource{Loader: gmailctl.Runner{Binary: a.cfg.Gmailctl.Binary, ConfigDir: credDir}}
			default:
				return fmt.Errorf("unknown source %q (want api or gmailctl)", source)
			}

			rep, err := verify.NewService(src, client, a.logger.Named("verify")).Check(ctx, opts)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), rep.HumanSummary()); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if rep.ShouldFail(verify.ParseFailOn(failOn)) {
				return fmt.Errorf("verify failures matched: %s", failOn)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Label, "label", "", "label whose filter to check")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "address that must be in the filter")
	cmd.Flags().BoolVar(&opts.EnsureLabel, "ensure-label", false, "create the label if it does not exist")
	cmd.Flags().StringVar(&source, "source", "api", "where to read filters: api or gmailctl")
	cmd.Flags().StringVar(&failOn, "fail-on", "missing,duplicate,missing-sender", "comma separated problems that fail the command")
	cmd.Flags().String("gmailctl-config", "", "gmailctl directory with credentials and config")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}
