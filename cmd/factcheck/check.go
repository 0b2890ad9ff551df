package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/graph"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/ingestion"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
)

var (
	checkFile  string
	checkText  string
	asJSON     bool
	statusOpt  string
	sortOpt    string
	applyFixes bool
	scanPath   string

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Fact-check a file, a string or stdin",
		Example: `  factcheck check --text "The Eiffel Tower was completed in 1899 in Berlin."
  factcheck check --file draft.md --status false --sort desc
  cat notes.txt | factcheck check --json --apply-fixes`,
		RunE: runCheck,
	}

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Fact-check every supported document under a directory",
		RunE:  runScan,
	}
)

func init() {
	for _, c := range []*cobra.Command{checkCmd, scanCmd} {
		c.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
		c.Flags().StringVar(&statusOpt, "status", "all", "show only all, true, false or insufficient verdicts")
		c.Flags().StringVar(&sortOpt, "sort", "", "sort verdicts by confidence: asc or desc")
	}
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "document to check (.txt, .md, .pdf, .png, .jpg)")
	checkCmd.Flags().StringVarP(&checkText, "text", "t", "", "text to check")
	checkCmd.Flags().BoolVar(&applyFixes, "apply-fixes", false, "print the document with refuted spans corrected")
	checkCmd.MarkFlagsMutuallyExclusive("file", "text")

	scanCmd.Flags().StringVarP(&scanPath, "path", "p", "./data", "directory to scan")
}

func viewOptions() (reportView, error) {
	v := reportView{status: statusOpt, sort: strings.ToLower(sortOpt), json: asJSON}
	if v.sort != "" && v.sort != "asc" && v.sort != "desc" {
		return v, fmt.Errorf("--sort must be asc or desc, got %q", sortOpt)
	}
	if _, err := graph.Filter(nil, v.status); err != nil {
		return v, err
	}
	return v, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	view, err := viewOptions()
	if err != nil {
		return err
	}
	view.applyFixes = applyFixes

	doc, err := loadInput(cmd.Context(), cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	wf, err := a.pipeline()
	if err != nil {
		return err
	}

	report, err := wf.Run(cmd.Context(), doc.Text)
	if err != nil {
		return err
	}
	return view.write(cmd.OutOrStdout(), doc, report)
}

func loadInput(ctx context.Context, stdin io.Reader) (*ingestion.Document, error) {
	switch {
	case checkFile != "":
		return ingestion.LoadFile(ctx, checkFile)
	case checkText != "":
		return ingestion.FromText(checkText, "text"), nil
	default:
		if f, ok := stdin.(*os.File); ok {
			if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
				return nil, errors.New("nothing to check: pass --file, --text or pipe text on stdin")
			}
		}
		return ingestion.FromReader(stdin, "stdin")
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	view, err := viewOptions()
	if err != nil {
		return err
	}

	files, err := ingestion.Scan(scanPath)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", scanPath, err)
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No supported documents under %s\n", scanPath)
		return nil
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	wf, err := a.pipeline()
	if err != nil {
		return err
	}

	var checked, skipped int
	for _, f := range files {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		doc, err := ingestion.LoadFile(cmd.Context(), f)
		if err != nil {
			logger.Warn("skip file", zap.String("file", f), zap.Error(err))
			skipped++
			continue
		}
		report, err := wf.Run(cmd.Context(), doc.Text)
		if err != nil {
			logger.Warn("fact-check failed", zap.String("file", f), zap.Error(err))
			skipped++
			continue
		}
		if err := view.write(cmd.OutOrStdout(), doc, report); err != nil {
			return err
		}
		checked++
	}
	logger.Info("scan complete", zap.Int("checked", checked), zap.Int("skipped", skipped))
	return nil
}

// fixedDocument applies the suggested fixes of refuted claims to doc.
func fixedDocument(doc *ingestion.Document, report *graph.Report) (string, int) {
	return processing.ApplyFixes(doc.Text, graph.Fixes(report.Results))
}
