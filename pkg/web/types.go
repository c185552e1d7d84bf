// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"encoding/json"
)

// SwfItem is the host-facing projection of one workflow.
type SwfItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Definition  string `json:"definition"`
}

// SwfListResult is the host-facing workflow list.
type SwfListResult struct {
	Items      []SwfItem `json:"items"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
	TotalCount int       `json:"totalCount"`
}

// CreateWorkflowRequest is the inline body of POST /workflows.
type CreateWorkflowRequest struct {
	URI        string          `json:"uri"        validate:"required"`
	Definition json.RawMessage `json:"definition" validate:"required"`
}

// HealthResponse is the liveness reply.
type HealthResponse struct {
	Status string `json:"status"`
}
