package handler

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /_health.
type HealthResponse struct {
	OK bool  `json:"ok"`
	TS int64 `json:"ts"` // Unix milliseconds
}

// HandleHealth reports that the process is up. It does not touch the store,
// so load balancers can poll it cheaply.
//
// HTTP: GET /_health
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, TS: time.Now().UnixMilli()})
}
