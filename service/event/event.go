// Package event carries lifecycle milestones (tensor initialized, tensor
// synced) published onto the in-memory message bus so an external monitor
// can subscribe without coupling to Service internals. Capability failures
// abort the process through errs.FatalFunc and are not published.
package event

import "time"

// Context identifies which tensor and which milestone an Event reports.
type Context struct {
	ProcessID   string `json:"processID"`
	TaskID      string `json:"taskID"`
	EventType   string `json:"eventType"`
	Service     string `json:"service"`
	Method      string `json:"method"`
	TimeTakenMs int    `json:"timeTakenMs"`
}

// Event wraps an arbitrary payload with lifecycle Context, matching the
// envelope carried by messaging.Message.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

// NewEvent builds an Event around data, stamping CreatedAt now.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
