package serializer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present. Boolean message
// fields are carried by their flag alone, a set flag means true.
const (
	hasPath     uint16 = 1 << 0
	hasToken    uint16 = 1 << 1
	hasTokens   uint16 = 1 << 2
	hasOwner    uint16 = 1 << 3
	hasTimeout  uint16 = 1 << 4
	hasShared   uint16 = 1 << 5
	hasDeep     uint16 = 1 << 6
	hasLock     uint16 = 1 << 7
	hasLocks    uint16 = 1 << 8
	hasConflict uint16 = 1 << 9
	hasNotFound uint16 = 1 << 10
	hasErr      uint16 = 1 << 11
	hasMeta     uint16 = 1 << 12
)

// Bit flags of the per-lock flag byte
const (
	lockShared byte = 1 << 0
	lockDeep   byte = 1 << 1
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer

	// Reserve the header (1 byte MsgType + 2 bytes flags), the flags are
	// patched in after all fields have been written
	buf.WriteByte(byte(msg.MsgType))
	buf.WriteByte(0)
	buf.WriteByte(0)

	var flags uint16

	// Handle Path
	if msg.Path != "" {
		flags |= hasPath
		writeString(&buf, msg.Path)
	}

	// Handle Token
	if msg.Token != "" {
		flags |= hasToken
		writeString(&buf, msg.Token)
	}

	// Handle Tokens
	if msg.Tokens != nil {
		flags |= hasTokens
		writeUint32(&buf, uint32(len(msg.Tokens)))
		for _, token := range msg.Tokens {
			writeString(&buf, token)
		}
	}

	// Handle Owner
	if msg.Owner != nil {
		flags |= hasOwner
		writeBytes(&buf, msg.Owner)
	}

	// Handle Timeout
	if msg.Timeout > 0 {
		flags |= hasTimeout
		writeUint64(&buf, msg.Timeout)
	}

	// Handle the boolean fields (flag only)
	if msg.Shared {
		flags |= hasShared
	}
	if msg.Deep {
		flags |= hasDeep
	}
	if msg.Conflict {
		flags |= hasConflict
	}
	if msg.NotFound {
		flags |= hasNotFound
	}

	// Handle Lock
	if msg.Lock != nil {
		flags |= hasLock
		writeLock(&buf, msg.Lock)
	}

	// Handle Locks
	if msg.Locks != nil {
		flags |= hasLocks
		writeUint32(&buf, uint32(len(msg.Locks)))
		for i := range msg.Locks {
			writeLock(&buf, &msg.Locks[i])
		}
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		writeString(&buf, msg.Err)
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		writeBytes(&buf, msg.Meta)
	}

	// Patch the flags into the header
	result := buf.Bytes()
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 3 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type and flags
	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:3])

	r := &reader{data: data, pos: 3}

	// Read Path if present
	msg.Path = ""
	if flags&hasPath != 0 {
		path, err := r.readString()
		if err != nil {
			return fmt.Errorf("path: %v", err)
		}
		msg.Path = path
	}

	// Read Token if present
	msg.Token = ""
	if flags&hasToken != 0 {
		token, err := r.readString()
		if err != nil {
			return fmt.Errorf("token: %v", err)
		}
		msg.Token = token
	}

	// Read Tokens if present
	msg.Tokens = nil
	if flags&hasTokens != 0 {
		count, err := r.readUint32()
		if err != nil {
			return fmt.Errorf("tokens: %v", err)
		}
		msg.Tokens = make([]string, count)
		for i := range msg.Tokens {
			if msg.Tokens[i], err = r.readString(); err != nil {
				return fmt.Errorf("tokens: %v", err)
			}
		}
	}

	// Read Owner if present
	msg.Owner = nil
	if flags&hasOwner != 0 {
		owner, err := r.readBytes()
		if err != nil {
			return fmt.Errorf("owner: %v", err)
		}
		msg.Owner = owner
	}

	// Read Timeout if present
	msg.Timeout = 0
	if flags&hasTimeout != 0 {
		timeout, err := r.readUint64()
		if err != nil {
			return fmt.Errorf("timeout: %v", err)
		}
		msg.Timeout = timeout
	}

	// Read the boolean fields
	msg.Shared = flags&hasShared != 0
	msg.Deep = flags&hasDeep != 0
	msg.Conflict = flags&hasConflict != 0
	msg.NotFound = flags&hasNotFound != 0

	// Read Lock if present
	msg.Lock = nil
	if flags&hasLock != 0 {
		lock, err := r.readLock()
		if err != nil {
			return fmt.Errorf("lock: %v", err)
		}
		msg.Lock = &lock
	}

	// Read Locks if present
	msg.Locks = nil
	if flags&hasLocks != 0 {
		count, err := r.readUint32()
		if err != nil {
			return fmt.Errorf("locks: %v", err)
		}
		msg.Locks = make([]locksys.Lock, count)
		for i := range msg.Locks {
			if msg.Locks[i], err = r.readLock(); err != nil {
				return fmt.Errorf("locks: %v", err)
			}
		}
	}

	// Read Err if present
	msg.Err = ""
	if flags&hasErr != 0 {
		errStr, err := r.readString()
		if err != nil {
			return fmt.Errorf("err: %v", err)
		}
		msg.Err = errStr
	}

	// Read Meta if present
	msg.Meta = nil
	if flags&hasMeta != 0 {
		meta, err := r.readBytes()
		if err != nil {
			return fmt.Errorf("meta: %v", err)
		}
		msg.Meta = meta
	}

	return nil
}

// --------------------------------------------------------------------------
// Write Helpers
// --------------------------------------------------------------------------

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

// writeLock encodes one lock descriptor. The absolute expiry is stored as
// unix nanoseconds, zero meaning unbounded.
func writeLock(buf *bytes.Buffer, lock *locksys.Lock) {
	writeString(buf, lock.Token)
	writeString(buf, lock.Path)
	writeBytes(buf, lock.Owner)
	writeUint64(buf, uint64(lock.Timeout))
	var timeoutAt int64
	if !lock.TimeoutAt.IsZero() {
		timeoutAt = lock.TimeoutAt.UnixNano()
	}
	writeUint64(buf, uint64(timeoutAt))
	var lockFlags byte
	if lock.Shared {
		lockFlags |= lockShared
	}
	if lock.Deep {
		lockFlags |= lockDeep
	}
	buf.WriteByte(lockFlags)
}

// --------------------------------------------------------------------------
// Read Helpers
// --------------------------------------------------------------------------

// reader is a bounds-checked cursor over the serialized data
type reader struct {
	data []byte
	pos  int
}

func (r *reader) readUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("data too short")
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *reader) readUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("data too short")
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *reader) readString() (string, error) {
	length, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if r.pos+int(length) > len(r.data) {
		return "", fmt.Errorf("data too short")
	}
	s := string(r.data[r.pos : r.pos+int(length)])
	r.pos += int(length)
	return s, nil
}

func (r *reader) readBytes() ([]byte, error) {
	length, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(length) > len(r.data) {
		return nil, fmt.Errorf("data too short")
	}
	b := make([]byte, length)
	copy(b, r.data[r.pos:r.pos+int(length)])
	r.pos += int(length)
	return b, nil
}

func (r *reader) readByte() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("data too short")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readLock() (locksys.Lock, error) {
	var lock locksys.Lock
	var err error
	if lock.Token, err = r.readString(); err != nil {
		return lock, err
	}
	if lock.Path, err = r.readString(); err != nil {
		return lock, err
	}
	owner, err := r.readBytes()
	if err != nil {
		return lock, err
	}
	if len(owner) > 0 {
		lock.Owner = owner
	}
	timeout, err := r.readUint64()
	if err != nil {
		return lock, err
	}
	lock.Timeout = time.Duration(timeout)
	timeoutAt, err := r.readUint64()
	if err != nil {
		return lock, err
	}
	if timeoutAt != 0 {
		lock.TimeoutAt = time.Unix(0, int64(timeoutAt))
	}
	lockFlags, err := r.readByte()
	if err != nil {
		return lock, err
	}
	lock.Shared = lockFlags&lockShared != 0
	lock.Deep = lockFlags&lockDeep != 0
	return lock, nil
}
