package knowledge

import "fmt"

// Strategy selects how a source document is segmented.
type Strategy string

const (
	StrategyArticles Strategy = "articles"
	StrategyWindows  Strategy = "windows"
)

// TopicSource selects how topic-tagged units get their topic.
type TopicSource string

const (
	TopicNone            TopicSource = ""
	TopicVocabulary      TopicSource = "vocabulary"
	TopicArticleMentions TopicSource = "article_mentions"
)

// Segmentation configures the segmenter for one source.
type Segmentation struct {
	Strategy  Strategy
	Size      int
	Overlap   int
	MinLength int
	Topics    TopicSource
	// Vocabulary names the classifier vocabulary when Topics is TopicVocabulary.
	Vocabulary string
}

// Source binds a document to its regulation, unit kind and segmentation.
type Source struct {
	Key          string
	File         string
	Regulation   Regulation
	Kind         UnitKind
	Segmentation Segmentation
}

// Source keys double as regulation family names for lookups.
const (
	SourceDublin       = "dublin"
	SourceCharter      = "charter"
	SourceDEProcedure  = "de_procedure"
	SourceSubsidiary   = "subsidiary"
	SourceFreeMovement = "free_movement"
	SourceGeneva       = "geneva"
)

var (
	dublinIII = Regulation{
		ID:           "EU_604_2013",
		Name:         "Dublin III Regulation",
		Jurisdiction: JurisdictionEU,
		ValidFrom:    "2013-06-19",
	}
	charter = Regulation{
		ID:           "EU_CHARTER_2000",
		Name:         "Charter of Fundamental Rights of the European Union",
		Jurisdiction: JurisdictionEU,
		ValidFrom:    "2009-12-01",
	}
	deAsylumStages = Regulation{
		ID:           "DE_ASYLUM_STAGES",
		Name:         "Stages of the German Asylum Procedure",
		Jurisdiction: JurisdictionDE,
		ValidFrom:    "2020-01-01",
	}
	qualification = Regulation{
		ID:           "EU_2024_1347",
		Name:         "Regulation (EU) 2024/1347 on qualification and subsidiary protection",
		Jurisdiction: JurisdictionEU,
		ValidFrom:    "2024-05-22",
	}
	freeMovementGuide = Regulation{
		ID:           "EU_FREE_MOVE_GUIDE_2023",
		Name:         "Guidance on the right of free movement of EU citizens and their families",
		Jurisdiction: JurisdictionEU,
		ValidFrom:    "2023-12-22",
		IsGuidance:   true,
	}
	refugeeConvention = Regulation{
		ID:           "UN_GENEVA_1951",
		Name:         "1951 Refugee Convention and 1967 Protocol",
		Jurisdiction: JurisdictionINTL,
		ValidFrom:    "1954-04-22",
	}
)

var sources = []Source{
	{
		Key:        SourceDublin,
		File:       "DUBLIN REGULATIONS.pdf",
		Regulation: dublinIII,
		Kind: UnitKind{
			Label:          "Article",
			Relationship:   "HAS_ARTICLE",
			IndexName:      "dublin_articles_index",
			NumberProperty: "article_number",
		},
		Segmentation: Segmentation{Strategy: StrategyArticles},
	},
	{
		Key:        SourceCharter,
		File:       "CHARTER_OF_FUNDAMENTAL_RIGHTS.pdf",
		Regulation: charter,
		Kind: UnitKind{
			Label:          "CharterArticle",
			Relationship:   "HAS_CHARTER_ARTICLE",
			IndexName:      "charter_index",
			NumberProperty: "charter_article_number",
		},
		Segmentation: Segmentation{Strategy: StrategyArticles},
	},
	{
		Key:        SourceDEProcedure,
		File:       "DE_ASYLUM_PROCEDURE_STAGES.pdf",
		Regulation: deAsylumStages,
		Kind: UnitKind{
			Label:        "DEProcedure",
			Relationship: "HAS_SECTION",
			IndexName:    "de_procedure_index",
			TopicTagged:  true,
			Domain:       "de_procedure",
		},
		Segmentation: Segmentation{
			Strategy:   StrategyWindows,
			Size:       800,
			Overlap:    150,
			Topics:     TopicVocabulary,
			Vocabulary: "de_procedure",
		},
	},
	{
		Key:        SourceSubsidiary,
		File:       "Subsidiary Protection - Third-country nations.pdf",
		Regulation: qualification,
		Kind: UnitKind{
			Label:        "SubsidiarySection",
			Relationship: "HAS_SECTION",
			IndexName:    "subsidiary_index",
			TopicTagged:  true,
			Domain:       "subsidiary_protection",
		},
		Segmentation: Segmentation{
			Strategy:  StrategyWindows,
			Size:      1200,
			Overlap:   200,
			MinLength: 100,
			Topics:    TopicArticleMentions,
		},
	},
	{
		Key:        SourceFreeMovement,
		File:       "Guidance on the right of free movement of EU citizens and their families.pdf",
		Regulation: freeMovementGuide,
		Kind: UnitKind{
			Label:        "FreeMovementSection",
			Relationship: "HAS_SECTION",
			IndexName:    "free_movement_index",
			TopicTagged:  true,
			Domain:       "free_movement_guidance",
		},
		Segmentation: Segmentation{
			Strategy:   StrategyWindows,
			Size:       1200,
			Overlap:    200,
			Topics:     TopicVocabulary,
			Vocabulary: "free_movement",
		},
	},
	{
		Key:        SourceGeneva,
		File:       "1951-Refugee Convention-1967-protocol (UNHCR Mandate).pdf",
		Regulation: refugeeConvention,
		Kind: UnitKind{
			Label:          "GenevaArticle",
			Relationship:   "HAS_ARTICLE",
			IndexName:      "geneva_index",
			NumberProperty: "article_number",
			AllowLabels:    true,
		},
		Segmentation: Segmentation{Strategy: StrategyArticles},
	},
}

var dublinStates = []string{
	"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE",
	"IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE",
}

// Sources returns the six ingested sources in processing order.
func Sources() []Source {
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}

// SourceByKey finds a source by key.
func SourceByKey(key string) (Source, error) {
	for i := range sources {
		if sources[i].Key == key {
			return sources[i], nil
		}
	}
	return Source{}, fmt.Errorf("%w: %q", ErrUnknownFamily, key)
}

// Regulations returns the regulation registry.
func Regulations() []Regulation {
	out := make([]Regulation, 0, len(sources))
	for i := range sources {
		out = append(out, sources[i].Regulation)
	}
	return out
}

// UnitKinds returns the unit kind of every source.
func UnitKinds() []UnitKind {
	out := make([]UnitKind, 0, len(sources))
	for i := range sources {
		out = append(out, sources[i].Kind)
	}
	return out
}

// DublinCountries returns the Dublin member state reference set.
func DublinCountries() []Country {
	out := make([]Country, 0, len(dublinStates))
	for _, code := range dublinStates {
		out = append(out, Country{Code: code, Jurisdiction: JurisdictionEU, DublinApplicable: true})
	}
	return out
}
