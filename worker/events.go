package worker

import (
	"github.com/sususave/go-offline/control"
	"github.com/sususave/go-offline/strategy"
)

// Event is one occurrence delivered to the worker. The concrete types
// below are the complete set.
type Event interface {
	event()
}

// InstallEvent asks the worker to prefetch the static manifest.
type InstallEvent struct{}

// ActivateEvent asks the worker to sweep stale generations and take over.
type ActivateEvent struct{}

// FetchEvent is an intercepted outgoing request.
type FetchEvent struct {
	Request *strategy.Request
}

// MessageEvent carries a control command from a page.
type MessageEvent struct {
	Command control.Command
}

// PushEvent carries a raw push payload.
type PushEvent struct {
	Data []byte
}

// NotificationClickEvent is the user's interaction with a notification.
type NotificationClickEvent struct {
	Action    string
	TargetURL string
}

func (InstallEvent) event()           {}
func (ActivateEvent) event()          {}
func (FetchEvent) event()             {}
func (MessageEvent) event()           {}
func (PushEvent) event()              {}
func (NotificationClickEvent) event() {}
