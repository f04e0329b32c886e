package browser

import "fmt"

// LaunchErrorKind enumerates the ways a session can fail to start.
type LaunchErrorKind string

const (
	DirUnwritable     LaunchErrorKind = "DIR_UNWRITABLE"
	DriverUnavailable LaunchErrorKind = "DRIVER_UNAVAILABLE"
)

// LaunchError is returned by Launcher.Launch. Any resources acquired before
// the failure have already been released when it is returned.
type LaunchError struct {
	Kind LaunchErrorKind
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	switch e.Kind {
	case DirUnwritable:
		return fmt.Sprintf("launch error (%s): output directory %s is not writable: %v", e.Kind, e.Path, e.Err)
	default:
		return fmt.Sprintf("launch error (%s): %v", e.Kind, e.Err)
	}
}

func (e *LaunchError) Unwrap() error { return e.Err }
