package classify

import (
	"fmt"
	"strings"
)

// General is the topic assigned when no rule matches.
const General = "general"

// Rule assigns Topic when any of its keywords occurs in the text.
type Rule struct {
	Topic    string
	Keywords []string
}

// Vocabulary is an ordered rule list; the first matching rule wins.
type Vocabulary struct {
	Name  string
	Rules []Rule
}

// Classify returns the topic of the first rule with a keyword contained in text,
// compared case-insensitively.
func (v Vocabulary) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range v.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Topic
			}
		}
	}
	return General
}

// Topics lists the topics a vocabulary can produce, including General.
func (v Vocabulary) Topics() []string {
	out := make([]string, 0, len(v.Rules)+1)
	for _, rule := range v.Rules {
		out = append(out, rule.Topic)
	}
	return append(out, General)
}

var DEProcedure = Vocabulary{
	Name: "de_procedure",
	Rules: []Rule{
		{Topic: "safe_countries", Keywords: []string{"safe countries of origin"}},
		{Topic: "procedure_management", Keywords: []string{"procedure management", "quality assurance"}},
		{Topic: "interview", Keywords: []string{"interview", "hearing"}},
		{Topic: "appeal", Keywords: []string{"appeal", "remedy"}},
		{Topic: "reception_benefits", Keywords: []string{"accommodation", "financial support"}},
		{Topic: "first_steps", Keywords: []string{"registration", "arrival"}},
	},
}

var FreeMovement = Vocabulary{
	Name: "free_movement",
	Rules: []Rule{
		{Topic: "workers_cross_border", Keywords: []string{"frontier worker", "cross-border"}},
		{Topic: "dual_nationals", Keywords: []string{"dual national", "dual eu"}},
		{Topic: "family_members", Keywords: []string{"family member"}},
		{Topic: "restrictions_public_policy", Keywords: []string{"article 27", "public policy"}},
		{Topic: "residence_documents", Keywords: []string{"residence card"}},
	},
}

// Lookup returns a built-in vocabulary by name.
func Lookup(name string) (Vocabulary, error) {
	switch name {
	case DEProcedure.Name:
		return DEProcedure, nil
	case FreeMovement.Name:
		return FreeMovement, nil
	default:
		return Vocabulary{}, fmt.Errorf("classify: unknown vocabulary %q", name)
	}
}
