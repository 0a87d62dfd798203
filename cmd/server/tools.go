package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/tags"
	"github.com/sakif/tenxdev/internal/validate"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect the tag dictionary",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "normalize [tag...]",
		Short: "Print the canonical label for each tag",
		Long: `Print the canonical label for each tag, one per line as "input -> label".
With no arguments, tags are read from stdin, one per line.`,
		Example: `  tenxdev tags normalize Auth golang "unit tests"
  cat tags.txt | tenxdev tags normalize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				var err error
				if inputs, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			for _, in := range inputs {
				fmt.Fprintf(out, "%s -> %s\n", in, tags.NormalizeTag(in))
			}
			return nil
		},
	})

	var withSynonyms bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the canonical labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, label := range tags.Canonical() {
				if withSynonyms {
					fmt.Fprintf(out, "%s: %s\n", label, strings.Join(tags.Synonyms(label), ", "))
					continue
				}
				fmt.Fprintln(out, label)
			}
			return nil
		},
	}
	list.Flags().BoolVarP(&withSynonyms, "synonyms", "s", false, "also print each label's synonyms")
	cmd.AddCommand(list)

	return cmd
}

// errInvalidDocument makes the process exit non-zero after the report has
// been printed.
var errInvalidDocument = errors.New("validation failed")

func newValidateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Validate a card document (or an array of them) without a server",
		Long: `Validate a card construction document with the same rules as
POST /api/card-features. A JSON array is validated element by element, as
POST /api/card-features/bulk does. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res := validateDocument(body)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintln(out, "ok")
			} else {
				for _, fe := range res.Errors {
					fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
				}
			}

			if !res.Valid {
				return fmt.Errorf("%w: %d problem(s)", errInvalidDocument, len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// validateDocument validates an object or an array of objects. Errors of
// array elements are prefixed with their index, "[2].title".
func validateDocument(body []byte) validate.Result {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		_, res := validate.CardJSON(body)
		return res
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		_, res := validate.CardJSON(body)
		return res
	}
	merged := validate.Result{Valid: true, Errors: []apperror.FieldError{}}
	for i, elem := range elems {
		_, res := validate.CardJSON(elem)
		for _, fe := range res.Errors {
			fe.Field = fmt.Sprintf("[%d].%s", i, fe.Field)
			merged.Errors = append(merged.Errors, fe)
		}
	}
	merged.Valid = len(merged.Errors) == 0
	return merged
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
