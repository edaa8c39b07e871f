package api

import (
	"math"
	"time"

	"slochecker/internal/eval"
	"slochecker/internal/storage"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Ready      bool     `json:"ready"`
	SLOsLoaded int      `json:"slosLoaded"`
	Reasons    []string `json:"reasons,omitempty"`
}

// VerdictResponse is the latest evaluation for one SLO. Value is null
// for indeterminate verdicts (NaN is not representable in JSON).
type VerdictResponse struct {
	SLOName     string    `json:"sloName"`
	Value       *float64  `json:"value"`
	Verdict     string    `json:"verdict"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// VerdictListResponse is the latest evaluation for every SLO
type VerdictListResponse struct {
	Verdicts []VerdictResponse `json:"verdicts"`
}

// HistoryRecordResponse is one stored evaluation record
type HistoryRecordResponse struct {
	ID          int64     `json:"id"`
	SLOName     string    `json:"sloName"`
	Value       *float64  `json:"value"`
	Verdict     string    `json:"verdict"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryResponse is a page of stored evaluation records
type HistoryResponse struct {
	Records []HistoryRecordResponse `json:"records"`
	Total   int                     `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func verdictResponse(record eval.Record) VerdictResponse {
	return VerdictResponse{
		SLOName:     record.SLOName,
		Value:       jsonValue(record.Value),
		Verdict:     string(record.Verdict),
		EvaluatedAt: record.EvaluatedAt,
	}
}

func historyRecordResponse(record storage.StoredRecord) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:          record.ID,
		SLOName:     record.SLOName,
		Value:       jsonValue(record.Value),
		Verdict:     string(record.Verdict),
		EvaluatedAt: record.EvaluatedAt,
		CreatedAt:   record.CreatedAt,
	}
}

func jsonValue(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
