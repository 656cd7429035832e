package pdftext

import (
	"strings"
	"unicode"
)

const (
	minSpaceRatio     = 0.05
	maxAvgWordLength  = 20.0
	maxEmptyPageShare = 0.5
)

// Stats summarizes how usable an extracted text layer is.
type Stats struct {
	Pages             int
	EmptyPages        int
	RuneCount         int
	WordCount         int
	SpaceCount        int
	LineCount         int
	AverageWordLength float64
	SpaceRatio        float64
}

func computeStats(pages []Page) Stats {
	stats := Stats{Pages: len(pages)}
	letters := 0
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			stats.EmptyPages++
			continue
		}
		stats.LineCount += strings.Count(p.Text, "\n") + 1
		stats.WordCount += len(strings.Fields(p.Text))
		for _, r := range p.Text {
			stats.RuneCount++
			if unicode.IsSpace(r) {
				stats.SpaceCount++
			} else {
				letters++
			}
		}
	}
	if stats.WordCount > 0 {
		stats.AverageWordLength = float64(letters) / float64(stats.WordCount)
	}
	if stats.RuneCount > 0 {
		stats.SpaceRatio = float64(stats.SpaceCount) / float64(stats.RuneCount)
	}
	return stats
}

// IsReadable reports whether the text looks like prose rather than a scanned or
// glyph-mangled document.
func (s Stats) IsReadable() bool {
	return len(s.Issues()) == 0
}

// Issues lists the readability problems detected.
func (s Stats) Issues() []string {
	if s.RuneCount == 0 {
		return []string{"no text layer"}
	}
	var issues []string
	if s.SpaceRatio < minSpaceRatio {
		issues = append(issues, "missing word spacing")
	}
	if s.AverageWordLength > maxAvgWordLength {
		issues = append(issues, "implausible word length")
	}
	if s.Pages > 0 && float64(s.EmptyPages)/float64(s.Pages) > maxEmptyPageShare {
		issues = append(issues, "mostly empty pages")
	}
	return issues
}
