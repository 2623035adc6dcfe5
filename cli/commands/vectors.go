package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/basalt/vectors"
)

func (a *App) newVectorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectors",
		Short: "Inspect and query vector indexes",
	}

	buckets := &cobra.Command{
		Use:   "buckets",
		Short: "Manage vector buckets",
	}
	buckets.AddCommand(a.newVectorBucketsListCommand())
	cmd.AddCommand(buckets)

	cmd.AddCommand(a.newVectorsListCommand())
	cmd.AddCommand(a.newVectorsQueryCommand())

	return cmd
}

func (a *App) newVectorBucketsListCommand() *cobra.Command {
	var opts vectors.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vector buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Vectors().ListBuckets(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			for _, b := range res.Data.VectorBuckets {
				fmt.Fprintln(a.stdout, b.VectorBucketName)
			}
			if res.Data.NextToken != "" {
				fmt.Fprintf(a.stderr, "more results: --next-token %s\n", res.Data.NextToken)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only buckets whose name starts with prefix")
	cmd.Flags().IntVar(&opts.MaxResults, "max-results", 0, "page size")
	cmd.Flags().StringVar(&opts.NextToken, "next-token", "", "continue from a previous page")

	return cmd
}

func (a *App) newVectorsListCommand() *cobra.Command {
	var (
		opts         vectors.ListVectorsOptions
		segmentCount int
		segmentIndex int
	)

	cmd := &cobra.Command{
		Use:   "list <bucket> <index>",
		Short: "List vectors in an index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Unset flags stay nil so the server sees no segmenting.
			if cmd.Flags().Changed("segment-count") {
				opts.SegmentCount = &segmentCount
			}
			if cmd.Flags().Changed("segment-index") {
				opts.SegmentIndex = &segmentIndex
			}

			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Vectors().From(args[0]).Index(args[1]).ListVectors(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			for _, v := range res.Data.Vectors {
				fmt.Fprintln(a.stdout, v.Key)
			}
			if res.Data.NextToken != "" {
				fmt.Fprintf(a.stderr, "more results: --next-token %s\n", res.Data.NextToken)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.MaxResults, "max-results", 0, "page size")
	cmd.Flags().StringVar(&opts.NextToken, "next-token", "", "continue from a previous page")
	cmd.Flags().BoolVar(&opts.ReturnData, "return-data", false, "include vector data")
	cmd.Flags().BoolVar(&opts.ReturnMetadata, "return-metadata", false, "include metadata")
	cmd.Flags().IntVar(&segmentCount, "segment-count", 0, "split the listing into N segments (1-16)")
	cmd.Flags().IntVar(&segmentIndex, "segment-index", 0, "segment to list (requires --segment-count)")

	return cmd
}

func (a *App) newVectorsQueryCommand() *cobra.Command {
	var (
		vector string
		filter string
		opts   vectors.QueryOptions
	)

	cmd := &cobra.Command{
		Use:   "query <bucket> <index>",
		Short: "Find the nearest vectors to a query vector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := json.Unmarshal([]byte(vector), &opts.QueryVector.Float32); err != nil {
				return exitWithCode(ExitValidation, fmt.Errorf("invalid --vector: want a JSON array of numbers: %w", err))
			}
			if filter != "" {
				if err := json.Unmarshal([]byte(filter), &opts.Filter); err != nil {
					return exitWithCode(ExitValidation, fmt.Errorf("invalid --filter: want a JSON object: %w", err))
				}
			}

			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Vectors().From(args[0]).Index(args[1]).QueryVectors(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			for _, m := range res.Data.Vectors {
				if m.Distance != nil {
					fmt.Fprintf(a.stdout, "%s\t%.6f\n", m.Key, *m.Distance)
					continue
				}
				fmt.Fprintln(a.stdout, m.Key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vector, "vector", "", "query vector as a JSON array")
	cmd.Flags().StringVar(&filter, "filter", "", "metadata filter as a JSON object")
	cmd.Flags().IntVar(&opts.TopK, "top-k", 10, "number of matches")
	cmd.Flags().BoolVar(&opts.ReturnDistance, "return-distance", true, "include distances")
	cmd.Flags().BoolVar(&opts.ReturnMetadata, "return-metadata", false, "include metadata")
	_ = cmd.MarkFlagRequired("vector")

	return cmd
}
