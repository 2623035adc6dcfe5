package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/basalt/storage"
)

func (a *App) newBucketsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Manage storage buckets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List storage buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().ListBuckets(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			if len(res.Data) == 0 {
				fmt.Fprintln(a.stdout, "No buckets.")
				return nil
			}
			for _, b := range res.Data {
				visibility := "private"
				if b.Public {
					visibility = "public"
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", b.ID, visibility)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a storage bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().GetBucket(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(res.Data)
		},
	})

	var public bool
	create := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a storage bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().CreateBucket(cmd.Context(), args[0], storage.BucketOptions{Public: public})
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			fmt.Fprintf(a.stdout, "Bucket %s created.\n", res.Data.Name)
			return nil
		},
	}
	create.Flags().BoolVar(&public, "public", false, "make objects readable without a token")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an empty storage bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().DeleteBucket(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			fmt.Fprintf(a.stdout, "Bucket %s deleted.\n", args[0])
			return nil
		},
	})

	return cmd
}
