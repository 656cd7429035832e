package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/server/router"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/server/routes"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

func (s *Server) buildRouter() {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.Use(s.monitoring.GinMiddleware())
		r.GET(s.monitoring.Path(), gin.WrapH(s.monitoring.ExporterHandler()))
	}
	r.Use(LoggerMiddleware(logger.FromContext(s.ctx)))
	r.NoRoute(func(c *gin.Context) {
		router.RespondProblemWithCode(c, http.StatusNotFound, router.ErrNotFoundCode, "route not found")
	})
	r.GET(routes.HealthVersioned(), s.healthHandler)
	r.GET(routes.Families(), listFamilies)
	r.GET(routes.Articles()+"/:family/:ref", s.articleHandler)
	r.GET(routes.Search(), s.searchHandler)
	s.router = r
}
