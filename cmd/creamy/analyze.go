package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		file     string
		asJSON   bool
		topWords bool
		filename string
	)
	cmd := &cobra.Command{
		Use:   "analyze [TEXT]",
		Short: "Analyze German text, or show top words across uploads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			svc, _, err := a.analysisService(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if topWords {
				words, err := svc.TopWords(cmd.Context(), filename)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, map[string]interface{}{"top_words": words})
				}
				bold := color.New(color.Bold)
				for i, w := range words {
					fmt.Fprintf(out, "%2d. ", i+1)
					bold.Fprintf(out, "%-20s", w.Word)
					fmt.Fprintf(out, " %4d  %s\n", w.Count, w.Translation)
				}
				return nil
			}

			text, err := readText(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := svc.Analyze(cmd.Context(), text)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, res)
			}
			heading := color.New(color.FgCyan, color.Bold)
			heading.Fprintln(out, "Sentences")
			for _, s := range res.Sentences {
				fmt.Fprintf(out, "  %s\n", s)
			}
			heading.Fprintln(out, "Verbs")
			fmt.Fprintf(out, "  %s\n", strings.Join(res.Verbs, ", "))
			heading.Fprintln(out, "Prepositions")
			fmt.Fprintf(out, "  %s\n", strings.Join(res.Prepositions, ", "))
			heading.Fprintln(out, "Word frequency")
			for _, wc := range res.WordFreq {
				fmt.Fprintf(out, "  %-20s %d\n", wc.Word, wc.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from file ('-' for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON as returned by the API")
	cmd.Flags().BoolVar(&topWords, "top", false, "show top words with translations instead")
	cmd.Flags().StringVar(&filename, "filename", "", "with --top, limit to the upload with this filename")
	return cmd
}

func readText(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New("pass either TEXT or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		return string(b), err
	default:
		return "", errors.New("nothing to analyze: pass TEXT or --file")
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
