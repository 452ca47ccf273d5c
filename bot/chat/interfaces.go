package chat

import (
	"errors"
	"fmt"
)

// ErrRoutingMiss is reported when an input matches nothing valid for the current state.
var ErrRoutingMiss = errors.New("routing miss")

// InputKind tells commands, free text and button presses apart.
type InputKind int

const (
	InputText InputKind = iota
	InputCommand
	InputButton
)

func (k InputKind) String() string {
	switch k {
	case InputCommand:
		return "command"
	case InputButton:
		return "button"
	default:
		return "text"
	}
}

// UserInput represents a normalized event from the transport.
type UserInput struct {
	Kind       InputKind
	Command    string // command name without the slash
	Text       string // free text
	Data       string // button payload
	CallbackID string // ack handle for button presses
}

func Command(name string) UserInput { return UserInput{Kind: InputCommand, Command: name} }
func Text(text string) UserInput    { return UserInput{Kind: InputText, Text: text} }
func Button(data, callbackID string) UserInput {
	return UserInput{Kind: InputButton, Data: data, CallbackID: callbackID}
}

// TransportError wraps a failed outbound delivery.
type TransportError struct {
	Op     string
	ChatID ChatID
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s to %s: %v", e.Op, e.ChatID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
