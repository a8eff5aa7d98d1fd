package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/selection"
	"github.com/pevans/dailyarticle/topics"
)

// SelectionResponse is the body of the selection endpoints.
type SelectionResponse struct {
	Date    string          `json:"date"`
	State   selection.State `json:"state"`
	Article article.View    `json:"article"`
}

// TopicArticleResponse is the body of GET /api/v1/topics/:topic/article.
type TopicArticleResponse struct {
	Topic   article.Topic `json:"topic"`
	Article article.View  `json:"article"`
}

// TopicInfo describes one entry of the topic table.
type TopicInfo struct {
	Key         article.Topic `json:"key"`
	DisplayName string        `json:"display_name"`
	Probability float64       `json:"probability"`
	Keywords    []string      `json:"keywords"`
}

// TopicsResponse is the body of GET /api/v1/topics.
type TopicsResponse struct {
	Topics []TopicInfo `json:"topics"`
}

// SourceInfo describes one news source and its latest run.
type SourceInfo struct {
	Key     string       `json:"key"`
	Name    string       `json:"name"`
	BaseURL string       `json:"base_url"`
	Tier    scraper.Tier `json:"tier"`
	Kind    scraper.Kind `json:"kind"`
	LastRun *runlog.Run  `json:"last_run,omitempty"`
}

// SourcesResponse is the body of GET /api/v1/sources.
type SourcesResponse struct {
	Sources []SourceInfo `json:"sources"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// selectionError writes the response for a failed selection call.
func (s *APIServer) selectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, selection.ErrNoArticlesAvailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse("no_articles_available", "No articles could be gathered from any source"))
	case errors.Is(err, selection.ErrNoArticlesForTopic):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to select an article"))
	}
}

func (s *APIServer) selectionResponse(a *article.Article) SelectionResponse {
	resp := SelectionResponse{
		State:   s.selector.State(),
		Article: article.NewView(a, s.topics),
	}
	if sel := s.selector.Current(); sel != nil {
		resp.Date = sel.Date
	}
	return resp
}

// HandleGetSelection handles GET /api/v1/selection.
func (s *APIServer) HandleGetSelection(c *gin.Context) {
	a, err := s.selector.Today(c.Request.Context())
	if err != nil {
		s.selectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.selectionResponse(a))
}

// HandleReloadSelection handles POST /api/v1/selection/reload.
func (s *APIServer) HandleReloadSelection(c *gin.Context) {
	a, err := s.selector.Reload(c.Request.Context())
	if err != nil {
		s.selectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.selectionResponse(a))
}

// HandleListTopics handles GET /api/v1/topics.
func (s *APIServer) HandleListTopics(c *gin.Context) {
	resp := TopicsResponse{Topics: make([]TopicInfo, 0, len(s.topics.Topics))}
	for _, t := range s.topics.Topics {
		resp.Topics = append(resp.Topics, TopicInfo{
			Key:         t.Key,
			DisplayName: t.DisplayName,
			Probability: t.Probability,
			Keywords:    t.Keywords,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// HandleTopicArticle handles GET /api/v1/topics/:topic/article.
func (s *APIServer) HandleTopicArticle(c *gin.Context) {
	topic, err := s.topics.Resolve(c.Param("topic"))
	if err != nil {
		if errors.Is(err, topics.ErrUnknownTopic) {
			c.JSON(http.StatusNotFound, errorResponse("unknown_topic", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}

	a, err := s.selector.ByTopic(c.Request.Context(), topic)
	if err != nil {
		s.selectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, TopicArticleResponse{
		Topic:   topic,
		Article: article.NewView(a, s.topics),
	})
}

// HandleListSources handles GET /api/v1/sources.
func (s *APIServer) HandleListSources(c *gin.Context) {
	latest := make(map[string]runlog.Run)
	if s.runs != nil {
		runs, err := s.runs.Latest()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read run history"))
			return
		}
		for _, r := range runs {
			latest[r.SourceKey] = r
		}
	}

	resp := SourcesResponse{Sources: make([]SourceInfo, 0, len(s.sources))}
	for _, src := range s.sources {
		info := SourceInfo{
			Key:     src.Key,
			Name:    src.Name,
			BaseURL: src.BaseURL,
			Tier:    src.Tier,
			Kind:    src.Kind,
		}
		if r, ok := latest[src.Key]; ok {
			info.LastRun = &r
		}
		resp.Sources = append(resp.Sources, info)
	}

	c.JSON(http.StatusOK, resp)
}

// HandleCacheStats handles GET /api/v1/cache.
func (s *APIServer) HandleCacheStats(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Cache statistics are not available"))
		return
	}

	stats, err := s.cache.Stats()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to read the article cache"))
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleGetConfig handles GET /api/v1/meta/config.
func (s *APIServer) HandleGetConfig(c *gin.Context) {
	if s.settings == nil {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Configuration is not available"))
		return
	}

	c.JSON(http.StatusOK, s.settings)
}
