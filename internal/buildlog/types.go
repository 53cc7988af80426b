package buildlog

import "fmt"

// Level is the severity of a build message.
type Level int

const (
	Error Level = iota
	Warning
	Info
	Verbose
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Verbose:
		return "verbose"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Status is the build state of one asset.
type Status int

const (
	Waiting Status = iota
	Building
	Skipped
	Success
	SuccessWithWarning
	Failed
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Building:
		return "building"
	case Skipped:
		return "skipped"
	case Success:
		return "success"
	case SuccessWithWarning:
		return "success-with-warning"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether no further transition follows s within a build.
func (s Status) Terminal() bool {
	switch s {
	case Skipped, Success, SuccessWithWarning, Failed:
		return true
	}
	return false
}

// Message is one log event. Asset is empty for build-wide messages.
type Message struct {
	Level Level
	Text  string
	Asset string
}

// StatusChange is one status transition of an asset.
type StatusChange struct {
	Status Status
	Asset  string
}

// Subscriber receives bus events. Calls to one subscriber never overlap.
type Subscriber interface {
	OnMessage(m Message)
	OnStatus(s StatusChange)
}
