package http

// EventName tags one delivery to the script callback.
type EventName string

const (
	EventHead  EventName = "head"
	EventData  EventName = "data"
	EventEnd   EventName = "end"
	EventError EventName = "error"
)

// Terminal reports whether the event ends a handle's stream.
func (n EventName) Terminal() bool {
	return n == EventEnd || n == EventError
}
