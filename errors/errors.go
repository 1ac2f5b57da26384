package errors

import "fmt"

var (
	ErrNoConnectTarget = fmt.Errorf("no chat server domain or host configured")
	ErrNotConnected    = fmt.Errorf("chat session is not connected")
	ErrEmptyBody       = fmt.Errorf("message body is empty")
	ErrNoRoom          = fmt.Errorf("message has no room and no default room is configured")
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrDrainTimeout    = fmt.Errorf("drain timed out before pending deliveries completed")
	ErrStopped         = fmt.Errorf("dispatcher is stopped")
)
