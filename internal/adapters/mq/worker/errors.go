package worker

import "errors"

// ErrStageTimeout marks a pipeline stage that exceeded its deadline. The
// worker degrades the stage's output instead of failing the analysis.
var ErrStageTimeout = errors.New("pipeline stage timed out")
