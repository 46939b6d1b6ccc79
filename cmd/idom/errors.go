package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
)

func errorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors [code]",
		Short: "List error codes or explain one",
		Long: `Without arguments, list every error code with its short message.
With a code, print the full explanation for it.

Examples:
  idom errors
  idom errors E102`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listErrors(cmd.OutOrStdout())
				return nil
			}
			return explainError(cmd.OutOrStdout(), args[0])
		},
	}
	return cmd
}

func listErrors(w io.Writer) {
	for _, code := range errors.GetAllCodes() {
		fmt.Fprintln(w, errors.New(code).FormatCompact())
	}
}

func explainError(w io.Writer, code string) error {
	code = strings.ToUpper(code)
	if _, ok := errors.GetTemplate(code); !ok {
		return errors.New("E503").
			WithReason("%s", code).
			WithSuggestion("Run 'idom errors' to list the known codes.")
	}
	fmt.Fprint(w, errors.New(code).Format())
	return nil
}
