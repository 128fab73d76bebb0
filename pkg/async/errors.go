package async

import "errors"

var (
	ErrTimeout       = errors.New("async: timeout waiting for task")
	ErrRunnerClosed  = errors.New("async: runner is shut down")
	ErrShutdownTimed = errors.New("async: shutdown timed out with tasks still running")
)
