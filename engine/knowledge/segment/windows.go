package segment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var mentionPattern = regexp.MustCompile(`(?im)^\s*article\s+(\d+)`)

// GeneralTopic labels windows without article mentions.
const GeneralTopic = "general"

// Windower slides a fixed-size window over every page independently.
type Windower struct {
	size          int
	overlap       int
	minLength     int
	articleTopics bool
}

// NewWindower validates window settings. Windows whose trimmed length is at most
// minLength runes are dropped; zero keeps everything non-blank.
func NewWindower(size, overlap, minLength int, articleTopics bool) (*Windower, error) {
	if size <= 0 {
		return nil, errors.New("segment: size must be greater than zero")
	}
	if overlap < 0 {
		return nil, errors.New("segment: overlap cannot be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("segment: overlap %d must be smaller than size %d", overlap, size)
	}
	if minLength < 0 {
		return nil, errors.New("segment: min length cannot be negative")
	}
	return &Windower{size: size, overlap: overlap, minLength: minLength, articleTopics: articleTopics}, nil
}

func (w *Windower) Split(pages []Page) []Unit {
	var units []Unit
	for _, p := range pages {
		runes := []rune(p.Text)
		for _, span := range Spans(len(runes), w.size, w.overlap) {
			raw := string(runes[span[0]:span[1]])
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			if w.minLength > 0 && utf8.RuneCountInString(text) <= w.minLength {
				continue
			}
			u := Unit{Text: text, Page: p.Number, Start: span[0], End: span[1]}
			if w.articleTopics {
				u.Topic = ArticleTopic(text)
			}
			units = append(units, u)
		}
	}
	return units
}

// Spans returns the [start, end) windows over n runes. Each window starts at the
// previous end minus overlap; the last one ends at n.
func Spans(n, size, overlap int) [][2]int {
	if n <= 0 || size <= 0 || overlap >= size {
		return nil
	}
	spans := make([][2]int, 0, n/(size-overlap)+1)
	for start := 0; start < n; {
		end := min(start+size, n)
		spans = append(spans, [2]int{start, end})
		if end == n {
			break
		}
		start = end - overlap
	}
	return spans
}

// ArticleTopic derives "Article 3/4" from the first two article lines in text,
// or "general" when there are none.
func ArticleTopic(text string) string {
	matches := mentionPattern.FindAllStringSubmatch(text, 2)
	if len(matches) == 0 {
		return GeneralTopic
	}
	nums := make([]string, 0, len(matches))
	for _, m := range matches {
		nums = append(nums, m[1])
	}
	return "Article " + strings.Join(nums, "/")
}
