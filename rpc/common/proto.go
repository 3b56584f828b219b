package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/davLS/lib/locksys"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Path    string   `json:"path,omitempty"`    // Used for: all lock operations
	Token   string   `json:"token,omitempty"`   // Used for: Release, Refresh
	Tokens  []string `json:"tokens,omitempty"`  // Used for: Check
	Owner   []byte   `json:"owner,omitempty"`   // Used for: Acquire (opaque descriptor)
	Timeout uint64   `json:"timeout,omitempty"` // Used for: Acquire, Refresh (seconds, 0 = unbounded)
	Shared  bool     `json:"shared,omitempty"`  // Used for: Acquire
	Deep    bool     `json:"deep,omitempty"`    // Used for: Acquire

	// Response fields
	Lock     *locksys.Lock  `json:"lock,omitempty"`     // Used for: Acquire, Refresh responses; the blocking lock on conflict
	Locks    []locksys.Lock `json:"locks,omitempty"`    // Used for: Discover responses
	Conflict bool           `json:"conflict,omitempty"` // Set on Acquire/Check responses when Lock is the blocking lock
	NotFound bool           `json:"notFound,omitempty"` // Set on Release/Refresh responses when the token was not found
	Err      string         `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewAcquireRequest creates a new Acquire request
func NewAcquireRequest(path string, owner []byte, timeout uint64, shared, deep bool) *Message {
	return &Message{
		MsgType: MsgTLockAcquire,
		Path:    path,
		Owner:   owner,
		Timeout: timeout,
		Shared:  shared,
		Deep:    deep,
	}
}

// NewAcquireResponse creates a new Acquire response
func NewAcquireResponse(lock locksys.Lock, err error) *Message {
	return newLockResponse(MsgTLockAcquire, lock, err)
}

// NewReleaseRequest creates a new Release request
func NewReleaseRequest(path, token string) *Message {
	return &Message{
		MsgType: MsgTLockRelease,
		Path:    path,
		Token:   token,
	}
}

// NewReleaseResponse creates a new Release response
func NewReleaseResponse(err error) *Message {
	return newAckResponse(MsgTLockRelease, err)
}

// NewRefreshRequest creates a new Refresh request
func NewRefreshRequest(path, token string, timeout uint64) *Message {
	return &Message{
		MsgType: MsgTLockRefresh,
		Path:    path,
		Token:   token,
		Timeout: timeout,
	}
}

// NewRefreshResponse creates a new Refresh response
func NewRefreshResponse(lock locksys.Lock, err error) *Message {
	return newLockResponse(MsgTLockRefresh, lock, err)
}

// NewCheckRequest creates a new Check request
func NewCheckRequest(path string, tokens []string) *Message {
	return &Message{
		MsgType: MsgTLockCheck,
		Path:    path,
		Tokens:  tokens,
	}
}

// NewCheckResponse creates a new Check response
func NewCheckResponse(err error) *Message {
	return newAckResponse(MsgTLockCheck, err)
}

// NewDiscoverRequest creates a new Discover request
func NewDiscoverRequest(path string) *Message {
	return &Message{
		MsgType: MsgTLockDiscover,
		Path:    path,
	}
}

// NewDiscoverResponse creates a new Discover response
func NewDiscoverResponse(locks []locksys.Lock, err error) *Message {
	msg := &Message{
		MsgType: MsgTLockDiscover,
		Locks:   locks,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(path string) *Message {
	return &Message{
		MsgType: MsgTLockDelete,
		Path:    path,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return newAckResponse(MsgTLockDelete, err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// newLockResponse builds a response carrying a lock descriptor. A conflict
// error is encoded as Conflict=true with Lock set to the blocking lock, a
// missing token as NotFound=true. Any other error travels in Err.
func newLockResponse(msgType MessageType, lock locksys.Lock, err error) *Message {
	msg := newAckResponse(msgType, err)
	if err == nil {
		msg.Lock = &lock
	}
	return msg
}

// newAckResponse builds a response without a payload, encoding conflict and
// not-found errors the same way newLockResponse does.
func newAckResponse(msgType MessageType, err error) *Message {
	msg := &Message{MsgType: msgType}
	switch {
	case err == nil:
	case errors.Is(err, locksys.ErrTokenNotFound):
		msg.NotFound = true
	default:
		if conflict, ok := locksys.AsConflict(err); ok {
			msg.Conflict = true
			msg.Lock = &conflict.Lock
		} else {
			msg.Err = err.Error()
		}
	}
	return msg
}

// ResponseError converts the error fields of a response message back into
// the typed errors of the locksys package. Used by the RPC client so remote
// and local lock systems surface identical errors.
func (m *Message) ResponseError() error {
	switch {
	case m.Conflict && m.Lock != nil:
		return &locksys.ConflictError{Lock: *m.Lock}
	case m.NotFound:
		return locksys.ErrTokenNotFound
	case m.Err != "":
		return errors.New(m.Err)
	default:
		return nil
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTSuccess:
		return "success"
	case MsgTError:
		return "error"
	case MsgTLockAcquire:
		return "acquire"
	case MsgTLockRelease:
		return "release"
	case MsgTLockRefresh:
		return "refresh"
	case MsgTLockCheck:
		return "check"
	case MsgTLockDiscover:
		return "discover"
	case MsgTLockDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "success":
		*t = MsgTSuccess
	case "error":
		*t = MsgTError
	case "acquire":
		*t = MsgTLockAcquire
	case "release":
		*t = MsgTLockRelease
	case "refresh":
		*t = MsgTLockRefresh
	case "check":
		*t = MsgTLockCheck
	case "discover":
		*t = MsgTLockDiscover
	case "delete":
		*t = MsgTLockDelete
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ILockSystem operations

	MsgTLockAcquire  // Acquire a new lock on a path
	MsgTLockRelease  // Release a lock by path and token
	MsgTLockRefresh  // Refresh the timeout of a lock
	MsgTLockCheck    // Verify access given a set of held tokens
	MsgTLockDiscover // Enumerate locks along a path
	MsgTLockDelete   // Cascade-delete a path and its subtree
)
