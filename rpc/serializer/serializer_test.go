package serializer

import (
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Acquire request
		{
			MsgType: common.MsgTLockAcquire,
			Path:    "/webdav/docs/report.txt",
			Owner:   []byte("<D:href>mailto:user@example.com</D:href>"),
			Timeout: 3600,
			Shared:  false,
			Deep:    true,
		},

		// Check request with multiple tokens
		{
			MsgType: common.MsgTLockCheck,
			Path:    "/webdav/docs",
			Tokens:  []string{"urn:uuid:token-1", "urn:uuid:token-2"},
		},

		// Conflict response carrying the blocking lock
		{
			MsgType:  common.MsgTLockAcquire,
			Conflict: true,
			Lock: &locksys.Lock{
				Token:  "urn:uuid:blocking-token",
				Path:   "/webdav/docs",
				Shared: false,
				Deep:   true,
			},
		},

		// Release response for an unknown token
		{
			MsgType:  common.MsgTLockRelease,
			NotFound: true,
		},

		// Discover response with multiple locks
		{
			MsgType: common.MsgTLockDiscover,
			Locks: []locksys.Lock{
				{Token: "urn:uuid:a", Path: "/", Shared: true, Deep: true},
				{Token: "urn:uuid:b", Path: "/webdav", Owner: []byte("owner"), Timeout: 30 * time.Second},
			},
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with meta data
		{
			MsgType: common.MsgTLockDelete,
			Path:    "/webdav/trash",
			Meta:    []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTLockDelete; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestLockExpiryRoundTrip tests that absolute lock expiry timestamps survive
// serialization. Timestamps are compared with time.Time.Equal since wall clock
// representations may differ between formats.
func TestLockExpiryRoundTrip(t *testing.T) {
	expiry := time.Date(2026, 8, 27, 12, 30, 0, 0, time.UTC)

	msg := common.Message{
		MsgType: common.MsgTLockRefresh,
		Lock: &locksys.Lock{
			Token:     "urn:uuid:refresh-token",
			Path:      "/webdav/docs/report.txt",
			Owner:     []byte("owner"),
			Timeout:   time.Hour,
			TimeoutAt: expiry,
			Shared:    true,
		},
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if result.Lock == nil {
				t.Fatalf("Lock missing after round trip")
			}
			if result.Lock.Token != msg.Lock.Token {
				t.Errorf("Token mismatch: expected '%s', got '%s'", msg.Lock.Token, result.Lock.Token)
			}
			if result.Lock.Timeout != msg.Lock.Timeout {
				t.Errorf("Timeout mismatch: expected %v, got %v", msg.Lock.Timeout, result.Lock.Timeout)
			}
			if !result.Lock.TimeoutAt.Equal(expiry) {
				t.Errorf("TimeoutAt mismatch: expected %v, got %v", expiry, result.Lock.TimeoutAt)
			}
			if result.Lock.Shared != msg.Lock.Shared {
				t.Errorf("Shared mismatch: expected %v, got %v", msg.Lock.Shared, result.Lock.Shared)
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty strings and zero values",
			msg: common.Message{
				MsgType: common.MsgTLockAcquire,
				Path:    "",
				Token:   "",
				Timeout: 0,
				Shared:  false,
				Deep:    false,
				Err:     "",
			},
		},
		{
			name: "Message with empty path but Shared=true",
			msg: common.Message{
				MsgType: common.MsgTLockAcquire,
				Path:    "",
				Shared:  true,
			},
		},
		{
			name: "Message with empty owner slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTLockAcquire,
				Path:    "/test",
				Owner:   []byte{},
			},
		},
		{
			name: "Message with empty token list but not nil",
			msg: common.Message{
				MsgType: common.MsgTLockCheck,
				Path:    "/test",
				Tokens:  []string{},
			},
		},
		{
			name: "Message with empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTSuccess,
				Meta:    []byte{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// Verify MsgType
			if tc.msg.MsgType != result.MsgType {
				t.Errorf("MsgType mismatch: expected %v, got %v", tc.msg.MsgType, result.MsgType)
			}

			// Verify Path
			if tc.msg.Path != result.Path {
				t.Errorf("Path mismatch: expected '%s', got '%s'", tc.msg.Path, result.Path)
			}

			// Verify Timeout
			if tc.msg.Timeout != result.Timeout {
				t.Errorf("Timeout mismatch: expected %d, got %d", tc.msg.Timeout, result.Timeout)
			}

			// Verify the boolean fields
			if tc.msg.Shared != result.Shared {
				t.Errorf("Shared mismatch: expected %v, got %v", tc.msg.Shared, result.Shared)
			}
			if tc.msg.Deep != result.Deep {
				t.Errorf("Deep mismatch: expected %v, got %v", tc.msg.Deep, result.Deep)
			}

			// Verify Err
			if tc.msg.Err != result.Err {
				t.Errorf("Err mismatch: expected '%s', got '%s'", tc.msg.Err, result.Err)
			}

			// Special handling for byte slices that may be nil or empty
			if (tc.msg.Owner == nil) != (result.Owner == nil) {
				t.Errorf("Owner nil/non-nil mismatch: expected %v, got %v", tc.msg.Owner, result.Owner)
			} else if len(tc.msg.Owner) != len(result.Owner) {
				t.Errorf("Owner length mismatch: expected %d, got %d", len(tc.msg.Owner), len(result.Owner))
			}

			// Same for Tokens
			if (tc.msg.Tokens == nil) != (result.Tokens == nil) {
				t.Errorf("Tokens nil/non-nil mismatch: expected %v, got %v", tc.msg.Tokens, result.Tokens)
			} else if len(tc.msg.Tokens) != len(result.Tokens) {
				t.Errorf("Tokens length mismatch: expected %d, got %d", len(tc.msg.Tokens), len(result.Tokens))
			}

			// Same for Meta
			if (tc.msg.Meta == nil) != (result.Meta == nil) {
				t.Errorf("Meta nil/non-nil mismatch: expected %v, got %v", tc.msg.Meta, result.Meta)
			} else if len(tc.msg.Meta) != len(result.Meta) {
				t.Errorf("Meta length mismatch: expected %d, got %d", len(tc.msg.Meta), len(result.Meta))
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Message type and half of the flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for path",
			data:        []byte{1, 0, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims path length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for owner",
			data:        []byte{1, 0, 8, 0, 0, 0, 10}, // Claims owner length 10 but no bytes provided
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
