package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".bmp": true, ".gif": true, ".webp": true,
}

func newImportCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "import PATH...",
		Short: "Run OCR on image files or directories and store the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := collectImages(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
			}

			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			ig, err := a.ingester(cmd.Context())
			if err != nil {
				return err
			}
			if workers > 0 {
				ig.Workers = workers
			}

			results, err := ig.ImportFiles(cmd.Context(), paths)
			out := cmd.OutOrStdout()
			ok, failed := color.New(color.FgGreen), color.New(color.FgRed)
			var imported int
			for _, res := range results {
				if res.Err != nil {
					failed.Fprintf(out, "✗ %s: %v\n", res.Filename, res.Err)
					continue
				}
				imported++
				ok.Fprintf(out, "✓ %s", res.Filename)
				fmt.Fprintf(out, " (%d chars, id %s)\n", len([]rune(res.Text())), res.Record.ID)
			}
			fmt.Fprintf(out, "Imported %d of %d images.\n", imported, len(results))
			if err != nil {
				return err
			}
			if imported < len(results) {
				return fmt.Errorf("%d images failed", len(results)-imported)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent OCR workers (default 4)")
	return cmd
}

// collectImages expands directories into the image files they contain.
func collectImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.Type().IsRegular() && imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
