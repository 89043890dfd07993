package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/qrawl/cache"
	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/models"
)

// Extract returns a handler for POST /api/v1/extract.
//
// Flow:
//  1. Parse & validate ExtractRequest.
//  2. Cache lookup when max_age_ms asks for one.
//  3. Engine extract: stored policy, or a one-shot inferred policy when
//     the request sets unknown.
//  4. Assemble response with timing, store it in the cache.
func Extract(eng *engine.Engine, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeValidation,
					Message: err.Error(),
				},
			})
			return
		}

		mode := "known"
		if req.Unknown {
			mode = "unknown"
		}

		if cc != nil && req.MaxAgeMS > 0 {
			key := cache.Key(req.URL, mode)
			if cached, hit := cc.Get(key, req.MaxAgeMS); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{
					TotalMS: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		callStart := time.Now()
		var bundle *engine.Bundle
		var err error
		if req.Unknown {
			bundle, err = eng.ExtractUnknown(c.Request.Context(), req.URL)
		} else {
			bundle, err = eng.ExtractKnown(c.Request.Context(), req.URL)
		}
		callMS := time.Since(callStart).Milliseconds()

		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMS:   time.Since(totalStart).Milliseconds(),
				ExtractMS: callMS,
			})
			return
		}

		resp := bundleResponse(bundle, totalStart, callMS)
		if cc != nil && req.MaxAgeMS > 0 {
			cc.Set(cache.Key(req.URL, mode), resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// ExtractAuto returns a handler for POST /api/v1/extract/auto: stored
// policy when one exists, one-shot inference otherwise.
func ExtractAuto(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeValidation,
					Message: err.Error(),
				},
			})
			return
		}

		callStart := time.Now()
		bundle, err := eng.ExtractAuto(c.Request.Context(), req.URL)
		callMS := time.Since(callStart).Milliseconds()

		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMS:   time.Since(totalStart).Milliseconds(),
				ExtractMS: callMS,
			})
			return
		}

		c.JSON(http.StatusOK, bundleResponse(bundle, totalStart, callMS))
	}
}

// bundleResponse shapes an engine bundle into the API envelope. The
// extract phase is the engine call minus the parent fetch.
func bundleResponse(b *engine.Bundle, totalStart time.Time, callMS int64) *models.ExtractResponse {
	tel := b.Telemetry
	extractMS := callMS - tel.DurationMS
	if extractMS < 0 {
		extractMS = 0
	}
	return &models.ExtractResponse{
		Success:   true,
		Page:      b.Page,
		Children:  b.Children,
		Telemetry: &tel,
		Timing: models.TimingInfo{
			TotalMS:   time.Since(totalStart).Milliseconds(),
			FetchMS:   tel.DurationMS,
			ExtractMS: extractMS,
		},
	}
}

// respondError maps a taxonomy error to the right HTTP status and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	c.JSON(statusFor(err), models.ExtractResponse{
		Success: false,
		Error:   models.DetailOf(err),
		Timing:  timing,
	})
}

// statusFor translates taxonomy codes to HTTP status codes.
func statusFor(err error) int {
	switch models.CodeOf(err) {
	case models.ErrCodeInvalidURL, models.ErrCodeMissingDomain, models.ErrCodeValidation:
		return http.StatusBadRequest // 400
	case models.ErrCodeMissingPolicy:
		return http.StatusNotFound // 404
	case models.ErrCodeFetch:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
