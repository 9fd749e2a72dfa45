package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/sawpanic/hedgeval/internal/compare"
)

// RunInfo identifies one comparison run in exported artifacts
type RunInfo struct {
	RunID      string                  `json:"run_id"`
	OursPath   string                  `json:"ours_path"`
	RefPath    string                  `json:"ref_path"`
	Confidence compare.ConfidenceLevel `json:"confidence"`
	Tolerance  float64                 `json:"tolerance"`
	ZScore     float64                 `json:"z_score"`
	StartedAt  time.Time               `json:"started_at"`
	Elapsed    time.Duration           `json:"-"`
}

// NewRunInfo stamps a fresh run id and start time
func NewRunInfo(oursPath, refPath string, engine *compare.Engine) RunInfo {
	return RunInfo{
		RunID:      uuid.NewString(),
		OursPath:   oursPath,
		RefPath:    refPath,
		Confidence: engine.ConfidenceLevel(),
		Tolerance:  engine.ToleranceFactor(),
		ZScore:     engine.ZScore(),
		StartedAt:  time.Now().UTC(),
	}
}
