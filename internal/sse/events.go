package sse

// SSE event type constants
const (
	EventState       = "state"
	EventElimination = "elimination"
	EventNight       = "night"
	EventGameOver    = "game-over"
	EventClosed      = "room-closed"
	EventError       = "error-message"
)

// BufferSize is the buffer size for subscriber channels
const BufferSize = 10

// SendTimeoutMillis bounds how long a publish waits on one slow subscriber
const SendTimeoutMillis = 200
