// Package httpapi is the JSON gateway of the path service.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/railpath/internal/dispatch"
	"github.com/danielpatrickdp/railpath/internal/query"
)

// Searcher runs queries and reports the layout it runs them on.
// *dispatch.Dispatcher implements it.
type Searcher interface {
	Find(ctx context.Context, q query.Request) (query.Response, error)
	Batch(ctx context.Context, qs []query.Request) ([]query.Response, error)
	VersionID() string
}

type batchRequest struct {
	Requests []query.Request `json:"requests" binding:"required"`
}

// #region router
// NewRouter builds the gin engine with CORS open to every origin.
func NewRouter(s Searcher) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"*"}
	r.Use(cors.New(config))

	h := &handler{searcher: s}
	r.POST("/v1/path", h.findPath)
	r.POST("/v1/batch", h.batch)
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
// #endregion router

// #region handlers
type handler struct {
	searcher Searcher
}

func (h *handler) findPath(c *gin.Context) {
	var q query.Request
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.searcher.Find(c.Request.Context(), q)
	if err != nil {
		abort(c, err)
		return
	}
	if resp.Error != "" {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) batch(c *gin.Context) {
	var br batchRequest
	if err := c.ShouldBindJSON(&br); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resps, err := h.searcher.Batch(c.Request.Context(), br.Requests)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": resps})
}

func (h *handler) health(c *gin.Context) {
	version := h.searcher.VersionID()
	if version == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no layout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "layout": version})
}

func abort(c *gin.Context, err error) {
	if errors.Is(err, dispatch.ErrNoLayout) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
// #endregion handlers
