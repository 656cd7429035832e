package segment

// Page is the extracted text of one source page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Unit is a segmented piece of text before classification and identification.
type Unit struct {
	Text string
	Page int
	// Article is the raw captured reference ("12", "1A") for article-style units.
	Article string
	// Topic is set by strategies that derive it from the text itself.
	Topic string
	// Start and End are rune offsets within the page for windowed units.
	Start int
	End   int
}

// Segmenter splits a document into ordered units.
type Segmenter interface {
	Split(pages []Page) []Unit
}
