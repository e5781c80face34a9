// Package render turns submission records into paginated PDF documents. The
// structural mapping is deterministic: each top-level field becomes a titled
// section, nested records become sub-sections, and list values become
// enumerated items. Content is never clipped; long values wrap and overflow
// onto new pages.
package render

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 15.0
	indentStep  = 6.0
	lineHeight  = 5.5
	keyColWidth = 48.0
)

// Render produces PDF bytes for a submission record (or any well-formed JSON
// object matching the known schema). It is a pure function of its input up to
// the generation timestamp in the page footer.
func Render(input []byte) ([]byte, error) {
	doc, err := decode(input)
	if err != nil {
		return nil, err
	}
	return emit(BuildOutline(doc))
}

// RenderToFile renders the input and persists the PDF at outPath. The PDF is
// built in memory first, so a failed render leaves no partial output file.
func RenderToFile(input []byte, outPath string) error {
	pdf, err := Render(input)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, pdf, 0644); err != nil {
		return renderWriteFailed("failed to write output file", err)
	}
	return nil
}

func decode(input []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformedInput("input is not a JSON object", err)
	}
	if dec.More() {
		return nil, malformedInput("trailing data after JSON document", nil)
	}
	if len(doc) == 0 {
		return nil, malformedInput("document has no fields", nil)
	}
	return doc, nil
}

func emit(outline *Outline) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(outline.Title, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(26, 54, 93)
	pdf.MultiCell(0, 9, tr(outline.Title), "", "C", false)
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	pdf.SetDrawColor(44, 82, 130)
	pdf.SetLineWidth(0.8)
	pdf.Line(pageMargin, pdf.GetY(), pageWidth-pageMargin, pdf.GetY())
	pdf.Ln(6)

	for _, sec := range outline.Sections {
		emitSection(pdf, tr, sec, 0)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(113, 128, 150)
	pdf.MultiCell(0, 5, tr("Generated "+time.Now().UTC().Format(time.RFC3339)), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, renderWriteFailed("failed to encode PDF", err)
	}
	return buf.Bytes(), nil
}

func emitSection(pdf *fpdf.Fpdf, tr func(string) string, sec Section, depth int) {
	indent := pageMargin + float64(depth)*indentStep
	pdf.SetLeftMargin(indent)
	pdf.SetX(indent)

	size := 14 - float64(depth)*2
	if size < 11 {
		size = 11
	}
	pdf.SetFont("Helvetica", "B", size)
	pdf.SetTextColor(44, 82, 130)
	pdf.MultiCell(0, 7, tr(sec.Title), "", "L", false)
	pdf.Ln(1)
	pdf.SetTextColor(0, 0, 0)

	for _, kv := range sec.KeyValues {
		emitKeyValue(pdf, tr, kv, indent, 0)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, p := range sec.Paragraphs {
		pdf.MultiCell(0, lineHeight, tr(p), "", "L", false)
		pdf.Ln(1)
	}

	for _, item := range sec.Items {
		if item.Text != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, lineHeight, tr(strings.TrimSpace(item.Heading+" "+item.Text)), "", "L", false)
			continue
		}
		if item.Heading != "" {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(49, 130, 206)
			pdf.MultiCell(0, lineHeight, tr(item.Heading), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		for _, kv := range item.KeyValues {
			emitKeyValue(pdf, tr, kv, indent, indentStep)
		}
		pdf.Ln(1)
	}

	if sec.Footer != "" {
		pdf.SetFont("Helvetica", "B", 10.5)
		pdf.SetTextColor(185, 28, 28)
		pdf.MultiCell(0, 6, tr(sec.Footer), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	for _, sub := range sec.Subsections {
		emitSection(pdf, tr, sub, depth+1)
	}

	pdf.SetLeftMargin(pageMargin)
	pdf.SetX(pageMargin)
	if depth == 0 {
		pdf.Ln(4)
	}
}

func emitKeyValue(pdf *fpdf.Fpdf, tr func(string) string, kv [2]string, indent, extra float64) {
	pdf.SetX(indent + extra)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(keyColWidth, lineHeight, tr(kv[0]+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, tr(kv[1]), "", "L", false)
}
