package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/miner"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// PageFetcher is the fetch dependency of the page-tool handlers.
// engine.LadderFetcher is the production implementation.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, cfg policy.FetchConfig) (*fetch.Result, error)
}

// Children returns a handler for POST /api/v1/children.
//
// Fetches the page and mines its child links: repeated sibling
// structures plus ItemList JSON-LD, resolved absolute, in document
// order.
func Children(f PageFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChildrenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondPlainError(c, models.ErrValidation("body", err.Error()))
			return
		}
		if _, _, err := domain.Parse(req.URL); err != nil {
			respondPlainError(c, err)
			return
		}

		res, err := f.Fetch(c.Request.Context(), req.URL, policy.FetchConfig{Strategy: policy.StrategyAdaptive})
		if err != nil {
			respondPlainError(c, err)
			return
		}

		children := miner.Children(res.HTML, req.URL)
		if children == nil {
			children = []string{}
		}
		c.JSON(http.StatusOK, models.ChildrenResponse{
			URL:      req.URL,
			Count:    len(children),
			Children: children,
		})
	}
}
