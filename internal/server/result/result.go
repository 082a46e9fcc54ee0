// Package result defines the success/failure envelope every service
// operation returns to its callers.
package result

// Result carries either a typed payload or a list of human-readable
// failure messages.
type Result[T any] struct {
	Succeeded bool     `json:"succeeded"`
	Messages  []string `json:"messages,omitempty"`
	Data      T        `json:"data"`
}

// None is the payload of operations that only report an outcome.
type None struct{}

// Success wraps data into a succeeded envelope. An optional message
// describes the outcome.
func Success[T any](data T, messages ...string) Result[T] {
	return Result[T]{Succeeded: true, Messages: messages, Data: data}
}

// Fail builds a failed envelope carrying messages verbatim.
func Fail[T any](messages ...string) Result[T] {
	return Result[T]{Succeeded: false, Messages: messages}
}

// Message returns the first message, or an empty string.
func (r Result[T]) Message() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0]
}
