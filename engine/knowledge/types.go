package knowledge

import (
	"strconv"
	"strings"
)

// Jurisdiction codes used by regulations, units and countries.
type Jurisdiction string

const (
	JurisdictionEU   Jurisdiction = "EU"
	JurisdictionDE   Jurisdiction = "DE"
	JurisdictionINTL Jurisdiction = "INTL"
)

// Regulation is a top-level legal instrument owning a set of units.
type Regulation struct {
	ID           string
	Name         string
	Jurisdiction Jurisdiction
	// ValidFrom is an ISO date (YYYY-MM-DD).
	ValidFrom  string
	IsGuidance bool
}

// Country is Dublin reference data.
type Country struct {
	Code             string
	Jurisdiction     Jurisdiction
	DublinApplicable bool
}

// UnitKind describes how units of one source are stored: node label, relationship
// from the owning regulation, vector index and the properties that identify them.
type UnitKind struct {
	Label        string
	Relationship string
	IndexName    string
	// NumberProperty is set for article-style units (article_number,
	// charter_article_number).
	NumberProperty string
	// AllowLabels lets non-numeric article references ("1A") be stored as
	// article_label instead of collapsing to their numeric prefix.
	AllowLabels bool
	// TopicTagged units carry a topic and hash it into their identifier.
	TopicTagged bool
	Domain      string
}

// ArticleLabelProperty holds opaque article references.
const ArticleLabelProperty = "article_label"

// Unit is the atomic retrievable piece of legal text.
type Unit struct {
	ID            string
	RegulationID  string
	Source        string
	Page          int
	Jurisdiction  Jurisdiction
	ValidFrom     string
	Text          string
	Topic         string
	ArticleNumber *int
	ArticleLabel  string
	Embedding     []float32
}

// Properties returns the scalar attributes stored on the unit node. The embedding is
// excluded; stores set it separately in their native vector representation.
func (u *Unit) Properties(kind UnitKind) map[string]any {
	props := map[string]any{
		"id":           u.ID,
		"source":       u.Source,
		"page":         u.Page,
		"valid_from":   u.ValidFrom,
		"jurisdiction": string(u.Jurisdiction),
		"text":         u.Text,
	}
	if kind.NumberProperty != "" && u.ArticleNumber != nil {
		props[kind.NumberProperty] = *u.ArticleNumber
	}
	if u.ArticleLabel != "" {
		props[ArticleLabelProperty] = u.ArticleLabel
	}
	if kind.TopicTagged {
		props["topic"] = u.Topic
		if kind.Domain != "" {
			props["domain"] = kind.Domain
		}
	}
	return props
}

// ArticleRef is a parsed article reference: either a number or an opaque label.
type ArticleRef struct {
	Number *int
	Label  string
}

// Key returns the property/value pair used to look the reference up on kind.
func (r ArticleRef) Key(kind UnitKind) (string, any) {
	if r.Number != nil {
		return kind.NumberProperty, *r.Number
	}
	return ArticleLabelProperty, r.Label
}

func (r ArticleRef) String() string {
	if r.Number != nil {
		return strconv.Itoa(*r.Number)
	}
	return r.Label
}

// ParseArticleRef parses a captured article reference such as "12" or "1A". Kinds
// without AllowLabels keep only the numeric prefix.
func ParseArticleRef(raw string, kind UnitKind) (ArticleRef, error) {
	raw = strings.TrimSpace(raw)
	digits := raw
	for i, r := range raw {
		if r < '0' || r > '9' {
			digits = raw[:i]
			break
		}
	}
	if digits == "" {
		if kind.AllowLabels && raw != "" {
			return ArticleRef{Label: strings.ToUpper(raw)}, nil
		}
		return ArticleRef{}, &InvalidArticleError{Raw: raw}
	}
	if digits != raw && kind.AllowLabels {
		return ArticleRef{Label: strings.ToUpper(raw)}, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return ArticleRef{}, &InvalidArticleError{Raw: raw, Err: err}
	}
	return ArticleRef{Number: &n}, nil
}
