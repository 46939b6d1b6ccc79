package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/dom"
	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/script"
)

type patchOptions struct {
	htmlPath    string
	programPath string
	dataPath    string
	outPath     string
	diff        bool
	pretty      bool
	stats       bool
}

func patchCmd(flags *globalFlags) *cobra.Command {
	var opts patchOptions

	cmd := &cobra.Command{
		Use:   "patch PROGRAM",
		Short: "Apply a patch program to HTML",
		Long: `Apply a patch program to existing markup and print the result.

The markup is adopted as the starting tree, so nodes the program declares
again are updated in place. Keys are read from the configured key
attribute.

Examples:
  idom patch list.yaml --data items.json
  idom patch list.yaml --html page.html --data items.json --diff
  idom patch list.yaml --html page.html --out page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("pretty") {
				opts.pretty = cfg.Output.Pretty
			}
			opts.programPath = args[0]
			return runPatch(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.htmlPath, "html", "", "Markup to patch (default: empty tree)")
	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "JSON data passed to the program")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Print a line diff of the markup instead of the result")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the output")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Report created and deleted nodes")

	return cmd
}

func runPatch(ctx context.Context, opts patchOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	prog, err := script.ParseFile(opts.programPath)
	if err != nil {
		return err
	}

	var data any
	if opts.dataPath != "" {
		raw, err := readInput(opts.dataPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return errors.New("E501").Wrap(err).
				WithReason("%s is not valid JSON: %v", opts.dataPath, err)
		}
	}

	doc := dom.NewDocument()
	root := doc.Body().AppendChild(doc.CreateElement("div"))
	if opts.htmlPath != "" {
		markup, err := readInput(opts.htmlPath)
		if err != nil {
			return err
		}
		if err := dom.SetInnerHTML(root, string(markup)); err != nil {
			return errors.New("E501").Wrap(err).WithReason("%s: %v", opts.htmlPath, err)
		}
		idom.ImportNode(root)
	}
	before := render(root, opts.pretty)

	var stats idom.PatchStats
	p := idom.NewPatcher(idom.WithObserver(idom.ObserverFunc(func(_ context.Context, s idom.PatchStats) {
		stats = s
	})))
	if _, err := script.Patch(ctx, p, root, prog, data); err != nil {
		return err
	}
	after := render(root, opts.pretty)

	out := after
	if opts.diff {
		out = lineDiff(before, after)
	}
	if err := writeOutput(opts.outPath, stdout, out); err != nil {
		return err
	}
	if opts.stats {
		fmt.Fprintf(stderr, "created %d, deleted %d in %s\n", stats.Created, stats.Deleted, stats.Duration)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E501").Wrap(err).WithReason("%v", err)
	}
	return b, nil
}

func writeOutput(path string, stdout io.Writer, s string) error {
	if path == "" {
		_, err := io.WriteString(stdout, s)
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return errors.New("E502").Wrap(err).WithReason("%v", err)
	}
	return nil
}

// render returns the markup of root's children, newline terminated.
func render(root *dom.Node, pretty bool) string {
	if !pretty {
		return dom.InnerHTML(root) + "\n"
	}
	var b strings.Builder
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		_ = dom.Render(&b, c, dom.RenderOptions{Pretty: true})
	}
	return b.String()
}

// lineDiff renders a unified-style line diff of two markups.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix, paint := "  ", fmt.Sprint
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+ ", green
		case diffmatchpatch.DiffDelete:
			prefix, paint = "- ", red
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(paint(prefix + strings.TrimSuffix(line, "\n")))
			out.WriteString("\n")
		}
	}
	return out.String()
}
