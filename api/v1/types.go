package v1

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// FibonacciMode defines model for GetFibonacciParams.Mode.
type FibonacciMode string

const (
	FibonacciModeOffloaded FibonacciMode = "offloaded"
	FibonacciModeInline    FibonacciMode = "inline"
)

type FibonacciResponse struct {
	N          int           `json:"n"`
	Value      uint64        `json:"value"`
	JobId      *string       `json:"jobId,omitempty"`
	Mode       FibonacciMode `json:"mode"`
	DurationMs float64       `json:"durationMs"`
}

// GetFibonacciParams defines parameters for GetFibonacci.
type GetFibonacciParams struct {
	// Timeout is a Go duration, e.g. "250ms".
	Timeout string        `form:"timeout" json:"timeout,omitempty"`
	Mode    FibonacciMode `form:"mode" json:"mode,omitempty"`
}

type JobActionResponse struct {
	JobId  string `json:"jobId"`
	Action string `json:"action"`
}

type DispatcherStatus struct {
	MaxWorkers          int   `json:"maxWorkers"`
	Workers             int   `json:"workers"`
	Idle                int   `json:"idle"`
	Busy                int   `json:"busy"`
	Queued              int   `json:"queued"`
	Pending             int   `json:"pending"`
	Spawned             int   `json:"spawned"`
	Crashed             int   `json:"crashed"`
	DroppedObservations int64 `json:"droppedObservations"`
	Closing             bool  `json:"closing"`
}

type Observation struct {
	JobId       string    `json:"jobId"`
	Outcome     string    `json:"outcome"`
	ErrorKind   *string   `json:"errorKind,omitempty"`
	Error       *string   `json:"error,omitempty"`
	WorkerId    *int      `json:"workerId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	QueueTimeMs float64   `json:"queueTimeMs"`
	ExecTimeMs  float64   `json:"execTimeMs"`
}

// GetObservationsParams defines parameters for GetObservations.
type GetObservationsParams struct {
	Outcome []string `form:"outcome" json:"outcome,omitempty"`
	Limit   int      `form:"limit" json:"limit,omitempty"`
	Offset  int      `form:"offset" json:"offset,omitempty"`
}

type ObservationListResponse struct {
	Observations []Observation `json:"observations"`
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

type OutcomeSummary struct {
	Outcome         string  `json:"outcome"`
	Count           int     `json:"count"`
	MeanQueueTimeMs float64 `json:"meanQueueTimeMs"`
	MeanExecTimeMs  float64 `json:"meanExecTimeMs"`
	MaxExecTimeMs   float64 `json:"maxExecTimeMs"`
}

type ObservationSummaryResponse struct {
	Outcomes []OutcomeSummary `json:"outcomes"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
