package errors

import "fmt"

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrEmptyMessage   = fmt.Errorf("message is empty after trimming")
	ErrRateLimited    = fmt.Errorf("message rejected by rate limiter")
	ErrSessionUnknown = fmt.Errorf("session is not registered")
	ErrBackpressure   = fmt.Errorf("event dropped, consumer too slow")
	ErrFrameTooLarge  = fmt.Errorf("frame exceeds maximum size")
)
