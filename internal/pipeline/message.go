package pipeline

// MessageType identifies an out-of-band message posted to the host bus.
type MessageType string

const (
	// MessageResult carries recognition output in the FieldCurrentResult field.
	MessageResult MessageType = "result"
	// MessageAsyncStart announces that a state transition continues in the
	// background.
	MessageAsyncStart MessageType = "async-start"
	// MessageAsyncDone announces that a background transition completed.
	MessageAsyncDone MessageType = "async-done"
	// MessageError reports a failed operation; FieldError holds the cause.
	MessageError MessageType = "error"
)

// Field names used in message structures.
const (
	FieldCurrentResult = "current-result"
	FieldError         = "error"
)

// Message is an out-of-band structured notification from an element.
// Result text is carried verbatim; the bus never reparses it.
type Message struct {
	Type   MessageType
	Source string
	Fields map[string]string
}

// Bus posts messages asynchronously to the host. Post must not block the
// calling thread; implementations queue or drop.
type Bus interface {
	Post(msg Message)
}

// BusFunc adapts a function to the Bus interface.
type BusFunc func(msg Message)

func (f BusFunc) Post(msg Message) { f(msg) }
