package segment

import (
	"regexp"
	"sort"
	"strings"
)

var articlePattern = regexp.MustCompile(`(?i)^article\s+(\d+[a-z]*)`)

// ArticleSplitter opens a new unit at every line starting with "Article <N>".
// Text before the first boundary is dropped.
type ArticleSplitter struct{}

type pageOffset struct {
	start int
	page  int
}

func (ArticleSplitter) Split(pages []Page) []Unit {
	var all strings.Builder
	offsets := make([]pageOffset, 0, len(pages))
	for _, p := range pages {
		offsets = append(offsets, pageOffset{start: all.Len(), page: p.Number})
		all.WriteString(p.Text)
		all.WriteByte('\n')
	}
	var (
		units   []Unit
		current []string
		article string
		start   int
		open    bool
	)
	flush := func() {
		if !open {
			return
		}
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			units = append(units, Unit{Text: text, Page: pageAt(offsets, start), Article: article})
		}
	}
	offset := 0
	for _, line := range strings.Split(all.String(), "\n") {
		if m := articlePattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			open = true
			article = m[1]
			start = offset
			current = []string{line}
		} else if open {
			current = append(current, line)
		}
		offset += len(line) + 1
	}
	flush()
	return units
}

// CountBoundaries returns the number of lines in text that open an article.
func CountBoundaries(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if articlePattern.MatchString(strings.TrimSpace(line)) {
			n++
		}
	}
	return n
}

func pageAt(offsets []pageOffset, pos int) int {
	i := sort.Search(len(offsets), func(i int) bool { return offsets[i].start > pos })
	if i == 0 {
		return 0
	}
	return offsets[i-1].page
}
