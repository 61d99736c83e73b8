package pipeline

import (
	"errors"
	"strings"
)

var (
	// ErrNoMatch is returned by a stage that did not recognize the message.
	ErrNoMatch = errors.New("no pattern matched")
	// ErrUnparseableResponse means the model reply held no usable JSON object.
	ErrUnparseableResponse = errors.New("model response has no recoverable JSON object")
	// ErrMissingAmount means neither the model nor the message yielded a
	// positive amount.
	ErrMissingAmount = errors.New("could not extract valid amount from message")
	// ErrAmountNotFound is the terminal failure: the message has no numeric
	// token at all.
	ErrAmountNotFound = errors.New("could not find an amount in the message")
)

// ExamplePhrasings are offered back to the user after a failed parse.
var ExamplePhrasings = []string{
	"Spent 250 on lunch",
	"Received 5000 from salary",
	"Bought groceries for 800",
	"Got 2000 from freelance work",
}

// ParseError is the only error the extraction cascade returns to callers.
type ParseError struct {
	Message  string   // the user's original text
	Examples []string // phrasings the user can retry with
	Err      error
}

func newParseError(message string, err error) *ParseError {
	return &ParseError{
		Message:  message,
		Examples: append([]string(nil), ExamplePhrasings...),
		Err:      err,
	}
}

func (e *ParseError) Error() string {
	return "could not parse the finance message: please include an amount and describe the transaction clearly"
}

func (e *ParseError) Unwrap() error { return e.Err }

// Guidance renders the user-facing help text with the example phrasings.
func (e *ParseError) Guidance() string {
	var b strings.Builder
	b.WriteString("I'm having trouble understanding that message. Please try phrases like:\n")
	for _, ex := range e.Examples {
		b.WriteString("\n• '")
		b.WriteString(ex)
		b.WriteString("'")
	}
	b.WriteString("\n\n✨ Make sure to include the amount and what it was for!")
	return b.String()
}
