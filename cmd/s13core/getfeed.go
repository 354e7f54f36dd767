package main

import (
	"errors"
	"fmt"

	"github.com/bilgisen/s13core/internal/feed"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/spf13/cobra"
)

var errNoFeed = errors.New("Feed does not exist!")

func (c *cli) getFeedCmd() *cobra.Command {
	var processOnly, forget bool
	cmd := &cobra.Command{
		Use:   "getfeed <label>",
		Short: "Fetch and process a social media feed",
		Long: `Fetch a social media feed by its label, store the response and turn
the items into articles with the feed's processor.

Examples:
  # Download and process
  s13core getfeed twitter

  # Process the stored response again without downloading
  s13core getfeed twitter --process-only

  # Create articles again for items seen in earlier runs
  s13core getfeed twitter --process-only --forget`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := a.socmed.FeedByLabel(ctx, args[0])
			if errors.Is(err, socmed.ErrNotFound) {
				return errNoFeed
			}
			if err != nil {
				return err
			}

			if forget {
				if err := a.cache.ClearProcessed(ctx); err != nil {
					return err
				}
			}

			var res *feed.Result
			if processOnly {
				res, err = a.collector.Process(ctx, f.ID)
			} else {
				res, err = a.collector.Retrieve(ctx, f.ID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message())
			for _, e := range res.Errors {
				cmd.PrintErrln(e)
			}
			if processOnly {
				fmt.Fprintln(cmd.OutOrStdout(), "** Feed processed. Goodbye.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "** Feed downloaded and processed. Goodbye.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&processOnly, "process-only", false, "process the stored response without downloading")
	cmd.Flags().BoolVar(&forget, "forget", false, "clear the processed item markers of every feed first")
	return cmd
}
