package knowledge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("Should list the six sources in processing order", func(t *testing.T) {
		keys := make([]string, 0, 6)
		for _, src := range Sources() {
			keys = append(keys, src.Key)
		}
		assert.Equal(t, []string{
			SourceDublin, SourceCharter, SourceDEProcedure, SourceSubsidiary, SourceFreeMovement, SourceGeneva,
		}, keys)
	})

	t.Run("Should keep labels and index names unique", func(t *testing.T) {
		labels := map[string]bool{}
		indexes := map[string]bool{}
		for _, kind := range UnitKinds() {
			assert.False(t, labels[kind.Label], kind.Label)
			assert.False(t, indexes[kind.IndexName], kind.IndexName)
			labels[kind.Label] = true
			indexes[kind.IndexName] = true
		}
		assert.Len(t, labels, 6)
	})

	t.Run("Should flag only the free movement guide as guidance", func(t *testing.T) {
		for _, reg := range Regulations() {
			assert.Equal(t, reg.ID == "EU_FREE_MOVE_GUIDE_2023", reg.IsGuidance, reg.ID)
		}
	})

	t.Run("Should seed 27 Dublin states", func(t *testing.T) {
		countries := DublinCountries()
		require.Len(t, countries, 27)
		for _, c := range countries {
			assert.True(t, c.DublinApplicable)
			assert.Equal(t, JurisdictionEU, c.Jurisdiction)
		}
	})

	t.Run("Should reject unknown source keys", func(t *testing.T) {
		_, err := SourceByKey("schengen")
		assert.ErrorIs(t, err, ErrUnknownFamily)
		src, err := SourceByKey(SourceGeneva)
		require.NoError(t, err)
		assert.Equal(t, "GenevaArticle", src.Kind.Label)
	})
}

func TestParseArticleRef(t *testing.T) {
	geneva, err := SourceByKey(SourceGeneva)
	require.NoError(t, err)
	dublin, err := SourceByKey(SourceDublin)
	require.NoError(t, err)

	t.Run("Should parse numeric references", func(t *testing.T) {
		ref, err := ParseArticleRef("17", dublin.Kind)
		require.NoError(t, err)
		require.NotNil(t, ref.Number)
		assert.Equal(t, 17, *ref.Number)
		prop, value := ref.Key(dublin.Kind)
		assert.Equal(t, "article_number", prop)
		assert.Equal(t, 17, value)
	})

	t.Run("Should keep opaque labels where allowed", func(t *testing.T) {
		ref, err := ParseArticleRef("1a", geneva.Kind)
		require.NoError(t, err)
		assert.Nil(t, ref.Number)
		assert.Equal(t, "1A", ref.Label)
		prop, value := ref.Key(geneva.Kind)
		assert.Equal(t, ArticleLabelProperty, prop)
		assert.Equal(t, "1A", value)
	})

	t.Run("Should collapse suffixes to the number elsewhere", func(t *testing.T) {
		ref, err := ParseArticleRef("3a", dublin.Kind)
		require.NoError(t, err)
		require.NotNil(t, ref.Number)
		assert.Equal(t, 3, *ref.Number)
	})

	t.Run("Should reject unparseable references", func(t *testing.T) {
		_, err := ParseArticleRef("99999999999999999999", dublin.Kind)
		var invalid *InvalidArticleError
		assert.True(t, errors.As(err, &invalid))
		_, err = ParseArticleRef("", dublin.Kind)
		assert.Error(t, err)
	})
}

func TestUnitProperties(t *testing.T) {
	t.Run("Should include number property for article units", func(t *testing.T) {
		charter, err := SourceByKey(SourceCharter)
		require.NoError(t, err)
		n := 4
		u := Unit{ID: "abc", Page: 2, Text: "Article 4", ArticleNumber: &n, Jurisdiction: JurisdictionEU}
		props := u.Properties(charter.Kind)
		assert.Equal(t, 4, props["charter_article_number"])
		assert.NotContains(t, props, "topic")
		assert.Equal(t, "EU", props["jurisdiction"])
	})

	t.Run("Should include topic and domain for sections", func(t *testing.T) {
		de, err := SourceByKey(SourceDEProcedure)
		require.NoError(t, err)
		u := Unit{ID: "abc", Topic: "interview"}
		props := u.Properties(de.Kind)
		assert.Equal(t, "interview", props["topic"])
		assert.Equal(t, "de_procedure", props["domain"])
	})
}

func TestErrors(t *testing.T) {
	t.Run("Should classify missing sources as precondition failures", func(t *testing.T) {
		err := &MissingSourcesError{Paths: []string{"data/a.pdf", "data/b.pdf"}}
		assert.ErrorIs(t, err, ErrPrecondition)
		assert.Contains(t, err.Error(), "data/a.pdf, data/b.pdf")
	})

	t.Run("Should unwrap orphan errors", func(t *testing.T) {
		err := &OrphanUnitError{Label: "Article", UnitID: "x", RegulationID: "EU_604_2013"}
		assert.ErrorIs(t, err, ErrOrphanUnit)
	})
}
