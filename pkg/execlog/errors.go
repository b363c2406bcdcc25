package execlog

import "errors"

var (
	ErrEntryNotFound     = errors.New("execution log entry not found")
	ErrAlreadyCompleted  = errors.New("execution log entry already completed")
	ErrInvalidStatus     = errors.New("invalid execution log status")
	ErrFailedToBegin     = errors.New("failed to open execution log entry")
	ErrFailedToComplete  = errors.New("failed to close execution log entry")
	ErrFailedToCheckFlag = errors.New("failed to read pause flag")
	ErrFailedToSetFlag   = errors.New("failed to set pause flag")
	ErrJobPanicked       = errors.New("job panicked")
)
