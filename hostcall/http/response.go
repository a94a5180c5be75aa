package http

// ResponseHead is the payload of a "head" event.
type ResponseHead struct {
	StatusText string
	Version    string
	Headers    Headers
	Status     uint16
}

// Object renders the head as the script-visible object.
func (h ResponseHead) Object() map[string]any {
	return map[string]any{
		"status":     h.Status,
		"statusText": h.StatusText,
		"version":    h.Version,
		"headers":    h.Headers.Array(),
	}
}
