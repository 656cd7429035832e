package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/ident"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/pdftext"
)

func TestPrepare(t *testing.T) {
	t.Run("Should split articles and keep their page and number", func(t *testing.T) {
		src := mustSource(t, knowledge.SourceDublin)
		out, err := Prepare(t.Context(), src, []pdftext.Page{
			{Number: 1, Text: "Article 1\nFoo."},
			{Number: 2, Text: "Article 2\nBar."},
		})
		require.NoError(t, err)
		require.Len(t, out.Units, 2)
		first := out.Units[0]
		assert.Equal(t, "Article 1\nFoo.", first.Text)
		assert.Equal(t, 1, first.Page)
		require.NotNil(t, first.ArticleNumber)
		assert.Equal(t, 1, *first.ArticleNumber)
		assert.Equal(t, ident.Of(first.Text), first.ID)
		assert.Equal(t, "EU_604_2013", first.RegulationID)
		assert.Equal(t, knowledge.JurisdictionEU, first.Jurisdiction)
		assert.Equal(t, 2, out.Units[1].Page)
	})

	t.Run("Should classify topic-tagged windows and hash the topic in", func(t *testing.T) {
		src := mustSource(t, knowledge.SourceDEProcedure)
		out, err := Prepare(t.Context(), src, []pdftext.Page{
			{Number: 1, Text: "An unaccompanied minor attends the interview and may appeal."},
		})
		require.NoError(t, err)
		require.Len(t, out.Units, 1)
		unit := out.Units[0]
		assert.Equal(t, "interview", unit.Topic)
		assert.Equal(t, ident.OfTopic(unit.Text, "interview"), unit.ID)
		assert.NotEqual(t, ident.Of(unit.Text), unit.ID)
	})

	t.Run("Should take subsidiary topics from article mentions", func(t *testing.T) {
		src := mustSource(t, knowledge.SourceSubsidiary)
		out, err := Prepare(t.Context(), src, []pdftext.Page{{Number: 3, Text: subsidiaryText}})
		require.NoError(t, err)
		require.Len(t, out.Units, 1)
		assert.Equal(t, "Article 15", out.Units[0].Topic)
		assert.Equal(t, 3, out.Units[0].Page)
	})

	t.Run("Should skip unparseable article references", func(t *testing.T) {
		src := mustSource(t, knowledge.SourceCharter)
		out, err := Prepare(t.Context(), src, []pdftext.Page{
			{Number: 1, Text: "Article 99999999999999999999\nOverflow.\nArticle 4\nTorture."},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Segmented)
		assert.Equal(t, 1, out.Skipped)
		require.Len(t, out.Units, 1)
		assert.Equal(t, 4, *out.Units[0].ArticleNumber)
	})

	t.Run("Should store Geneva suffixed articles as labels", func(t *testing.T) {
		src := mustSource(t, knowledge.SourceGeneva)
		out, err := Prepare(t.Context(), src, []pdftext.Page{{Number: 1, Text: "Article 1A\nRefugee."}})
		require.NoError(t, err)
		require.Len(t, out.Units, 1)
		assert.Nil(t, out.Units[0].ArticleNumber)
		assert.Equal(t, "1A", out.Units[0].ArticleLabel)
	})
}
