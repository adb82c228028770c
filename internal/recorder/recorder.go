package recorder

import "PatternScreener/internal/model"

// Recorder persists screening runs for later analysis.
type Recorder interface {
	RecordRun(run *model.ScreenRun) error
	Close() error
}
