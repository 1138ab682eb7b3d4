package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/japaniel/creamy/pkg/ingest"
	"github.com/japaniel/creamy/pkg/upload"
)

func newUploadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Inspect and delete stored uploads",
	}
	cmd.AddCommand(newUploadsListCmd(), newUploadsDeleteCmd(), newUploadsPurgeCmd())
	return cmd
}

func newUploadsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.uploadStore(cmd.Context())
			if err != nil {
				return err
			}
			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No uploads.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tFILENAME\tTEXT")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Filename, oneLine(s.Text, 50))
			}
			return tw.Flush()
		},
	}
}

func newUploadsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an upload and its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, closeFn, err := openUploads(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			rec, err := u.Delete(cmd.Context(), args[0])
			if errors.Is(err, upload.ErrNotFound) {
				return fmt.Errorf("upload %s not found", args[0])
			}
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Deleted upload %s (%s)\n", rec.ID, rec.Filename)
			return nil
		},
	}
}

func newUploadsPurgeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every upload and image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all uploads without --yes")
			}
			u, closeFn, err := openUploads(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			n, err := u.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%d uploads deleted\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting everything")
	return cmd
}

func openUploads(cmd *cobra.Command) (*ingest.Uploads, func(), error) {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	store, err := a.uploadStore(cmd.Context())
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	imgs, err := a.imageStore(cmd.Context())
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return &ingest.Uploads{Store: store, Images: imgs, Logger: a.logger}, a.Close, nil
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
