package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/host/htmlpage"
	"github.com/joshsymonds/autolabel/internal/sender"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		file   string
		origin string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the sender detected in a saved message page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()
			page, err := htmlpage.Load(f, "")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ref, err := originRef(ctx, page, origin)
			if err != nil {
				return err
			}
			root, err := page.Snapshot(ctx)
			if err != nil {
				return err
			}
			extractor, err := sender.NewExtractor(a.cfg.ExtractOptions(), a.logger.Named("sender"))
			if err != nil {
				return err
			}
			addr, ok := extractor.Extract(dom.ByRef(root, ref))
			if !ok {
				return failure.New(failure.NoSenderDetected, "extract", "no address near %q", origin)
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "html", "", "saved message HTML")
	cmd.Flags().StringVar(&origin, "origin", "body", "CSS selector of the element to start from")
	_ = cmd.MarkFlagRequired("html")
	return cmd
}
