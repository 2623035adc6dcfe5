package commands

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/petal-labs/basalt/storage"
)

func (a *App) newObjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "List, upload and download stored objects",
	}

	cmd.AddCommand(a.newObjectsListCommand())
	cmd.AddCommand(a.newObjectsUploadCommand())
	cmd.AddCommand(a.newObjectsDownloadCommand())

	return cmd
}

func (a *App) newObjectsListCommand() *cobra.Command {
	var (
		prefix string
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list <bucket>",
		Short: "List objects under a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().From(args[0]).List(cmd.Context(), prefix, &storage.SearchOptions{
				Limit:  limit,
				Search: search,
			})
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			for _, obj := range res.Data {
				name := obj.Name
				if obj.ID == nil {
					// Folders have no id.
					name += "/"
				}
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "folder to list")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries (default 100)")
	cmd.Flags().StringVar(&search, "search", "", "filter names by substring")

	return cmd
}

func (a *App) newObjectsUploadCommand() *cobra.Command {
	var (
		contentType string
		upsert      bool
	)

	cmd := &cobra.Command{
		Use:   "upload <bucket> <path> <file>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[2])
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(args[2]))
			}

			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().From(args[0]).Upload(cmd.Context(), args[1], data, &storage.FileOptions{
				ContentType: contentType,
				Upsert:      upsert,
			})
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(res.Data)
			}
			fmt.Fprintf(a.stdout, "Uploaded %s.\n", res.Data.FullPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default from the file extension)")
	cmd.Flags().BoolVar(&upsert, "upsert", false, "overwrite an existing object")

	return cmd
}

func (a *App) newObjectsDownloadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <bucket> <path>",
		Short: "Download an object to a file or stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient()
			if err != nil {
				return err
			}
			res, err := c.Storage().From(args[0]).Download(args[1]).Stream(cmd.Context())
			if err != nil {
				return err
			}
			body := res.Data
			defer body.Close()

			var w io.Writer = a.stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return exitWithCode(ExitValidation, err)
				}
				defer f.Close()
				w = f
			}

			n, err := io.Copy(w, body)
			if err != nil {
				return exitWithCode(ExitNetwork, err)
			}
			a.logger.Debug("download complete", "path", args[1], "bytes", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
