package main

import (
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		bf     browserFlags
		origin string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run once, using the element matching --origin as the clicked element",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			page, notifier, err := a.openBrowser(ctx, bf)
			if err != nil {
				return err
			}
			defer page.Close()

			ref, err := originRef(ctx, page, origin)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(page, notifier)
			if err != nil {
				return err
			}
			return report(cmd, orch.Run(ctx, ref))
		},
	}
	addBrowserFlags(cmd, &bf)
	cmd.Flags().StringVar(&origin, "origin", "span.gD", "CSS selector of the element to start from")
	return cmd
}
