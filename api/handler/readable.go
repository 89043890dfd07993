package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/qrawl/cleaner"
	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// Readable returns a handler for POST /api/v1/readable.
//
// Fetches the page and produces a readable article view in the
// requested format. A css_selector narrows the input HTML before
// extraction, so token savings are measured against the narrowed input.
func Readable(pipe *cleaner.Pipeline, f PageFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ReadableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondPlainError(c, models.ErrValidation("body", err.Error()))
			return
		}
		req.Defaults()

		if _, _, err := domain.Parse(req.URL); err != nil {
			respondPlainError(c, err)
			return
		}

		res, err := f.Fetch(c.Request.Context(), req.URL, policy.FetchConfig{Strategy: policy.StrategyAdaptive})
		if err != nil {
			respondPlainError(c, err)
			return
		}

		htmlBody := res.HTML
		if req.CSSSelector != "" {
			htmlBody, err = cleaner.ApplyCSSSelector(htmlBody, req.CSSSelector)
			if err != nil {
				respondPlainError(c, err)
				return
			}
		}

		result, err := pipe.Readable(req.URL, htmlBody, req.OutputFormat)
		if err != nil {
			respondPlainError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ReadableResponse{
			URL:          req.URL,
			Title:        result.Title,
			Byline:       result.Byline,
			OutputFormat: req.OutputFormat,
			Content:      result.Content,
			Tokens:       result.Tokens,
		})
	}
}
