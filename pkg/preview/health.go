package preview

import "time"

// HealthRecord tracks per-handler success/failure metrics. Records are owned
// by the registry and live for the process lifetime.
type HealthRecord struct {
	SuccessCount      int64         `json:"success_count"`
	FailureCount      int64         `json:"failure_count"`
	TotalProcessing   time.Duration `json:"total_processing"`
	AverageProcessing time.Duration `json:"average_processing"`
	LastUsed          time.Time     `json:"last_used"`
}

// observe folds one outcome into the record and recomputes the running
// average.
func (r *HealthRecord) observe(succeeded bool, elapsed time.Duration) {
	if succeeded {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}
	r.TotalProcessing += elapsed
	if total := r.SuccessCount + r.FailureCount; total > 0 {
		r.AverageProcessing = r.TotalProcessing / time.Duration(total)
	}
	r.LastUsed = time.Now()
}
