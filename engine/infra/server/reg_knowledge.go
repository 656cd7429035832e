package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/server/router"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
)

type familyView struct {
	Family       string `json:"family"`
	RegulationID string `json:"regulation_id"`
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Label        string `json:"label"`
	IndexName    string `json:"index_name"`
	Articles     bool   `json:"articles"`
	DefaultTopK  int    `json:"default_top_k"`
}

type searchQuery struct {
	Family string `form:"family" binding:"required"`
	Query  string `form:"q"      binding:"required"`
	K      int    `form:"k"      binding:"omitempty,min=1,max=50"`
}

func listFamilies(c *gin.Context) {
	sources := knowledge.Sources()
	out := make([]familyView, 0, len(sources))
	for _, src := range sources {
		out = append(out, familyView{
			Family:       src.Key,
			RegulationID: src.Regulation.ID,
			Name:         src.Regulation.Name,
			Jurisdiction: string(src.Regulation.Jurisdiction),
			Label:        src.Kind.Label,
			IndexName:    src.Kind.IndexName,
			Articles:     src.Kind.NumberProperty != "",
			DefaultTopK:  retriever.DefaultTopK(src.Key),
		})
	}
	router.RespondOK(c, "Success", out)
}

// articleHandler serves direct article lookups.
func (s *Server) articleHandler(c *gin.Context) {
	article, err := s.queries.Article(c.Request.Context(), c.Param("family"), c.Param("ref"))
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondOK(c, "Success", article)
}

// searchHandler serves nearest-neighbour search over one family's index.
func (s *Server) searchHandler(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, err.Error())
		return
	}
	results, err := s.queries.Search(c.Request.Context(), q.Family, q.Query, q.K)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	if results == nil {
		results = []retriever.Result{}
	}
	router.RespondOK(c, "Success", gin.H{"family": q.Family, "results": results})
}
