package restclient

import "errors"

var (
	ErrRetryableRequest = errors.New("retryable upstream request failed")
	ErrNonRetryable     = errors.New("non-retryable upstream error")
	ErrNotFound         = errors.New("upstream resource not found")
)
