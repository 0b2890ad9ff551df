package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/graph"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/ingestion"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
)

type reportView struct {
	status     string
	sort       string
	json       bool
	applyFixes bool
}

type jsonReport struct {
	Document     *ingestion.Document `json:"document"`
	Report       *graph.Report       `json:"report"`
	FixedContent string              `json:"fixed_content,omitempty"`
	FixesApplied int                 `json:"fixes_applied,omitempty"`
}

func (v reportView) write(w io.Writer, doc *ingestion.Document, report *graph.Report) error {
	results, err := graph.Filter(report.Results, v.status)
	if err != nil {
		return err
	}
	if v.sort != "" {
		results = graph.SortByConfidence(results, v.sort == "desc")
	}

	var fixed string
	var applied int
	if v.applyFixes {
		fixed, applied = fixedDocument(doc, report)
	}

	if v.json {
		view := *report
		view.Results = results
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonReport{Document: doc, Report: &view, FixedContent: fixed, FixesApplied: applied})
	}

	writeText(w, doc, report, results)
	if v.applyFixes {
		fmt.Fprintf(w, "\n== Corrected text (%d fixes applied) ==\n%s\n", applied, fixed)
	}
	return nil
}

func writeText(w io.Writer, doc *ingestion.Document, report *graph.Report, results []claim.Result) {
	title := doc.Title
	if title == "" {
		title = doc.Source
	}
	s := report.Summary
	fmt.Fprintf(w, "== %s ==\n", title)
	fmt.Fprintf(w, "%s: %d supported, %d refuted, %d insufficient. Confidence %d%%\n",
		s.Headline, s.Supported, s.Refuted, s.Insufficient, s.AverageConfidence)

	for i, r := range results {
		fmt.Fprintf(w, "\n%d. [%s] %s (%.0f%%)\n", i+1, r.Assessment.Label(), r.Claim, r.ConfidenceScore)
		if r.Summary != "" {
			fmt.Fprintf(w, "   %s\n", r.Summary)
		}
		if r.Assessment == claim.AssessmentFalse && r.FixedOriginalText != "" && r.FixedOriginalText != r.OriginalText {
			before, after := processing.DiffWords(r.OriginalText, r.FixedOriginalText)
			fmt.Fprintf(w, "   - %s\n", processing.Render(before, "[-", "-]"))
			fmt.Fprintf(w, "   + %s\n", processing.Render(after, "{+", "+}"))
		}
		for _, u := range r.URLSources {
			fmt.Fprintf(w, "   > %s\n", u)
		}
	}

	if len(report.Sources) > 0 {
		domains := make([]string, len(report.Sources))
		for i, src := range report.Sources {
			domains[i] = src.Domain
		}
		fmt.Fprintf(w, "\nSources: %s\n", strings.Join(domains, ", "))
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "! not checked (%s): %s\n", f.Stage, f.Claim)
	}
	for _, n := range report.Notes {
		fmt.Fprintf(w, "note: %s\n", n)
	}
}
