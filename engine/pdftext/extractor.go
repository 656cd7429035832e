package pdftext

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// ErrNotPDF is returned for files whose content is not a PDF document.
var ErrNotPDF = errors.New("pdftext: file is not a pdf")

// Page is the plain text of one page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Result holds per-page text and readability statistics for a document.
type Result struct {
	Pages []Page
	Stats Stats
	// Truncated reports that the rune limit cut the document short.
	Truncated bool
}

// Text joins all pages with newlines.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Extractor reads text layers from PDF files.
type Extractor struct {
	maxRunes int64
}

// New returns an extractor that stops reading once maxRunes have been collected.
// Zero means no limit.
func New(maxRunes int64) *Extractor {
	return &Extractor{maxRunes: maxRunes}
}

// ExtractFile reads every page of the PDF at path. Pages that cannot be decoded
// yield empty text rather than failing the document.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (Result, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("pdftext: detect %q: %w", path, err)
	}
	if !mt.Is("application/pdf") {
		return Result{}, fmt.Errorf("%w: %q is %s", ErrNotPDF, path, mt.String())
	}
	file, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("pdftext: open %q: %w", path, err)
	}
	defer file.Close()
	total := reader.NumPage()
	pages := make([]Page, 0, total)
	var (
		collected int64
		truncated bool
	)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		text := normalize(pageText(reader, i))
		if e.maxRunes > 0 {
			remaining := e.maxRunes - collected
			if remaining <= 0 {
				truncated = true
				break
			}
			if cut := truncateRunes(text, remaining); len(cut) < len(text) {
				text = cut
				truncated = true
			}
		}
		collected += int64(utf8.RuneCountInString(text))
		pages = append(pages, Page{Number: i, Text: text})
	}
	return Result{Pages: pages, Stats: computeStats(pages), Truncated: truncated}, nil
}

// pageText recovers from decoder panics on malformed pages.
func pageText(reader *pdf.Reader, n int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	if glyphs := page.Content().Text; len(glyphs) > 0 {
		return joinLines(glyphs)
	}
	out, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return out
}

// joinLines rebuilds reading order from positioned glyphs: top to bottom, then left
// to right. Glyphs whose baselines lie within lineTolerance of a line's first glyph
// belong to that line.
func joinLines(glyphs []pdf.Text) string {
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b pdf.Text) int {
		return cmp.Compare(b.Y, a.Y)
	})
	var (
		lines []string
		line  []pdf.Text
	)
	flush := func() {
		if len(line) > 0 {
			lines = append(lines, lineText(line))
			line = line[:0]
		}
	}
	for _, g := range sorted {
		if len(line) > 0 && line[0].Y-g.Y > lineTolerance(line[0]) {
			flush()
		}
		line = append(line, g)
	}
	flush()
	return strings.Join(lines, "\n")
}

func lineTolerance(g pdf.Text) float64 {
	return max(1, g.FontSize*0.3)
}

// lineText orders one line by X. Fonts without widths report the same X for a whole
// run, so the sort is stable to keep stream order. A space is inserted where two runs
// are visibly apart.
func lineText(line []pdf.Text) string {
	slices.SortStableFunc(line, func(a, b pdf.Text) int {
		return cmp.Compare(a.X, b.X)
	})
	var b strings.Builder
	for i, g := range line {
		if i > 0 {
			prev := line[i-1]
			gap := g.X - (prev.X + prev.W)
			if prev.W > 0 && gap > prev.FontSize*0.2 &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}

func normalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

func truncateRunes(s string, limit int64) string {
	if int64(utf8.RuneCountInString(s)) <= limit {
		return s
	}
	var n int64
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
