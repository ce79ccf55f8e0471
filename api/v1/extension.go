package v1

import (
	"fmt"
	"time"

	"github.com/kubev2v/compute-offload-agent/internal/models"
)

func (f *FibonacciResponse) FromModel(m models.FibonacciResult) {
	f.N = m.N
	f.Value = m.Value
	f.Mode = FibonacciMode(m.Mode)
	f.DurationMs = toMillis(m.Duration)
	if m.JobID != "" {
		id := m.JobID
		f.JobId = &id
	}
}

func (d *DispatcherStatus) FromModel(m models.DispatcherStatus) {
	d.MaxWorkers = m.MaxWorkers
	d.Workers = m.Workers
	d.Idle = m.Idle
	d.Busy = m.Busy
	d.Queued = m.Queued
	d.Pending = m.Pending
	d.Spawned = m.Spawned
	d.Crashed = m.Crashed
	d.DroppedObservations = m.DroppedObservations
	d.Closing = m.Closing
}

// NewObservationFromModel converts a models.Observation to an API Observation.
func NewObservationFromModel(o models.Observation) Observation {
	apiObs := Observation{
		JobId:       o.JobID,
		Outcome:     string(o.Outcome),
		SubmittedAt: o.SubmittedAt,
		QueueTimeMs: toMillis(o.QueueTime),
		ExecTimeMs:  toMillis(o.ExecTime),
	}

	if o.ErrorKind != "" {
		apiObs.ErrorKind = &o.ErrorKind
	}
	if o.Error != "" {
		apiObs.Error = &o.Error
	}
	// worker 0 means the job never left the queue
	if o.WorkerID > 0 {
		apiObs.WorkerId = &o.WorkerID
	}

	return apiObs
}

func NewOutcomeSummaryFromModel(s models.OutcomeSummary) OutcomeSummary {
	return OutcomeSummary{
		Outcome:         string(s.Outcome),
		Count:           s.Count,
		MeanQueueTimeMs: toMillis(s.MeanQueueTime),
		MeanExecTimeMs:  toMillis(s.MeanExecTime),
		MaxExecTimeMs:   toMillis(s.MaxExecTime),
	}
}

// ParseOutcomes converts API outcome filters to model outcomes.
func ParseOutcomes(values []string) ([]models.Outcome, error) {
	var result []models.Outcome
	for _, v := range values {
		switch o := models.Outcome(v); o {
		case models.OutcomeSucceeded, models.OutcomeFailed, models.OutcomeTimedOut, models.OutcomeCanceled:
			result = append(result, o)
		default:
			return nil, fmt.Errorf("invalid outcome: %s", v)
		}
	}
	return result, nil
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
