package collector

import "codeberg.org/halver/sysmond/internal/errors"

const (
	ErrSampleFailed      = errors.ErrorCode("collector_sample_failed")
	ErrProcessListFailed = errors.ErrorCode("collector_process_list_failed")
)
