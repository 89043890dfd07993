package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/qrawl/config"
	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/webhook"
)

// batchConcurrency caps how many URLs of one job extract at once.
const batchConcurrency = 5

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				job := value.(*models.BatchJob)
				if job.CreatedAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns a handler for POST /api/v1/batch/extract.
// It validates the request, creates a batch job, and launches goroutines
// to extract each URL concurrently.
func PostBatch(eng *engine.Engine, hook config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondPlainError(c, models.ErrValidation("body", err.Error()))
			return
		}

		jobID := "batch-" + uuid.NewString()
		job := &models.BatchJob{
			ID:        jobID,
			Status:    "processing",
			Total:     len(req.URLs),
			Completed: 0,
			Results:   make([]*models.ExtractResponse, len(req.URLs)),
			CreatedAt: time.Now().Unix(),
		}
		batchStore.Store(jobID, job)

		// Launch extraction in background.
		go runBatch(eng, job, req, hook)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeOther,
					Message: "batch job not found",
				},
			})
			return
		}

		job := val.(*models.BatchJob)
		c.JSON(http.StatusOK, models.BatchStatusResponse{
			ID:        job.ID,
			Status:    job.Status,
			Completed: job.Completed,
			Total:     job.Total,
			Results:   job.Results,
		})
	}
}

// runBatch processes all URLs in a batch job with concurrency limited by
// a semaphore, then fires the completion webhook when one is configured.
func runBatch(eng *engine.Engine, job *models.BatchJob, req models.BatchRequest, hook config.WebhookConfig) {
	sem := make(chan struct{}, batchConcurrency)

	var wg sync.WaitGroup
	var completed atomic.Int32
	var failed atomic.Int32

	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp := extractOne(eng, targetURL, req.Options)
			job.Results[idx] = resp

			if resp.Success {
				completed.Add(1)
			} else {
				failed.Add(1)
			}
			job.Completed = int(completed.Load()) + int(failed.Load())
		}(i, rawURL)
	}

	wg.Wait()

	failedCount := int(failed.Load())
	completedCount := int(completed.Load())

	switch {
	case failedCount == job.Total:
		job.Status = "failed"
	case failedCount > 0:
		job.Status = "partial"
	default:
		job.Status = "completed"
	}
	job.Completed = completedCount + failedCount

	slog.Info("batch job finished",
		"id", job.ID,
		"status", job.Status,
		"completed", completedCount,
		"failed", failedCount,
		"total", job.Total,
	)

	if hook.URL != "" {
		webhook.DeliverAsync(hook.URL, hook.Secret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data: map[string]any{
				"status":    job.Status,
				"total":     job.Total,
				"completed": completedCount,
				"failed":    failedCount,
			},
		})
	}
}

// extractOne performs a single extraction for one URL using shared batch
// options.
func extractOne(eng *engine.Engine, targetURL string, opts models.BatchOptions) *models.ExtractResponse {
	totalStart := time.Now()

	callStart := time.Now()
	var bundle *engine.Bundle
	var err error
	if opts.Unknown {
		bundle, err = eng.ExtractUnknown(context.Background(), targetURL)
	} else {
		bundle, err = eng.ExtractKnown(context.Background(), targetURL)
	}
	callMS := time.Since(callStart).Milliseconds()

	if err != nil {
		return &models.ExtractResponse{
			Success: false,
			Error:   models.DetailOf(err),
			Timing: models.TimingInfo{
				TotalMS:   time.Since(totalStart).Milliseconds(),
				ExtractMS: callMS,
			},
		}
	}

	return bundleResponse(bundle, totalStart, callMS)
}
