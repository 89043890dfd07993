package models

// BatchRequest is the payload for POST /api/v1/batch/extract.
type BatchRequest struct {
	// URLs is the list of pages to extract. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100"`

	// Options contains shared extract options applied to all URLs.
	Options BatchOptions `json:"options"`
}

// BatchOptions are the shared settings applied to every URL in a batch.
type BatchOptions struct {
	// Unknown forces policy-free extraction for every URL in the batch.
	Unknown bool `json:"unknown,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/extract.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*ExtractResponse `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch extract operation.
type BatchJob struct {
	ID        string
	Status    string // "processing", "completed", "failed", "partial"
	Total     int
	Completed int
	Results   []*ExtractResponse
	CreatedAt int64 // unix timestamp
}
