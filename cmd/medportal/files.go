package main

import (
	"context"
	"fmt"
	"medportal/internal/attachments"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func filesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file"},
		Short:   "Manage uploaded attachment files",
	}
	cmd.AddCommand(filesListCmd(a), filesUploadCmd(a), filesVerifyCmd(a), filesDeleteCmd(a))
	return cmd
}

func filesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded file metadata",
		Args:  cobra.NoArgs,
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), a.store.ListUploadedFiles())
		}),
	}
}

func filesUploadCmd(a *app) *cobra.Command {
	var id, contentType, name string
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local file as an attachment payload",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(name))
			}
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			uploaded, err := a.uploader.Upload(ctx, attachments.Request{
				ID:   id,
				Name: name,
				Type: contentType,
				Size: st.Size(),
				Body: f,
			})
			if err = a.settle(err); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), uploaded)
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "file id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the base name of path)")
	cmd.Flags().StringVar(&contentType, "type", "", "MIME type (guessed from the extension when empty)")
	return cmd
}

func filesVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Recompute a payload digest and compare it with the recorded one",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			ok, err := a.uploader.Verify(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("uploaded file %s: content hash mismatch", args[0])
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", args[0])
			return err
		}),
	}
}

func filesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payload and its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, _ *cobra.Command, args []string) error {
			return a.settle(a.uploader.Delete(ctx, args[0]))
		}),
	}
}
