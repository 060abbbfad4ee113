package chat

import (
	"errors"
	"fmt"
)

// Kind is a stable code describing a controller failure.
type Kind string

// Error kinds.
const (
	KindNetwork       Kind = "network_error"
	KindBackend       Kind = "backend_error"
	KindEmptyMessage  Kind = "empty_message"
	KindUninitialized Kind = "uninitialized_session"
	KindEmptyPeer     Kind = "empty_peer"
	KindSuperseded    Kind = "superseded"
	KindUnknown       Kind = "unknown"
)

var (
	// ErrEmptyMessage is returned when the trimmed message content is empty.
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrUninitializedSession is returned when sending without an open chat.
	ErrUninitializedSession = errors.New("chat session not initialized")
	// ErrEmptyPeer is returned when opening a chat without a peer username.
	ErrEmptyPeer = errors.New("peer username is required")
	// ErrSuperseded is returned when a newer request or a close made a response obsolete.
	// Superseded responses are dropped silently.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// NetworkError reports that a request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError reports a non-2xx status or an undecodable success body.
type BackendError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: backend status %d: %v", e.Op, e.Status, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: backend status %d", e.Op, e.Status)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// KindOf classifies err.
func KindOf(err error) Kind {
	var netErr *NetworkError
	var backendErr *BackendError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyMessage):
		return KindEmptyMessage
	case errors.Is(err, ErrUninitializedSession):
		return KindUninitialized
	case errors.Is(err, ErrEmptyPeer):
		return KindEmptyPeer
	case errors.Is(err, ErrSuperseded):
		return KindSuperseded
	case errors.As(err, &backendErr):
		return KindBackend
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindUnknown
	}
}
