package stat

import "fmt"

// Stage names of a rollup run, in execution order.
const (
	StageUser   = "user"
	StageServer = "server"
	StageGlobal = "global"
)

type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// StageResult is the outcome of one rollup stage. Failures are carried as
// values so the caller can log them and move on to the next stage.
type StageResult struct {
	Stage  string
	Status StageStatus
	Rows   int
	Err    error
}

func Succeeded(stage string, rows int) StageResult {
	return StageResult{Stage: stage, Status: StageSuccess, Rows: rows}
}

// Skipped is a stage that had nothing to persist.
func Skipped(stage string) StageResult {
	return StageResult{Stage: stage, Status: StageSkipped}
}

func Failed(stage string, err error) StageResult {
	return StageResult{Stage: stage, Status: StageFailed, Err: err}
}

func (r StageResult) OK() bool {
	return r.Status != StageFailed
}

func (r StageResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", r.Stage, r.Status, r.Err)
	}
	return fmt.Sprintf("%s: %s rows=%d", r.Stage, r.Status, r.Rows)
}
