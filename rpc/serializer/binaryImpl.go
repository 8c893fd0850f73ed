package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout:
//
//	byte 0: MsgType
//	byte 1: Kind
//	byte 2: Reason
//	byte 3: flags (which optional fields follow)
//	then, in flag order: Resource, Requester, Origin (uint32 length + bytes),
//	RequestID (uint64), Ok (1 byte), Err, Meta (uint32 length + bytes)
type binarySerializerImpl struct {
}

// headerSize is MsgType + Kind + Reason + flags
const headerSize = 4

// Bit flags to indicate which optional fields are present
const (
	hasResource  byte = 1 << 0
	hasRequester byte = 1 << 1
	hasOrigin    byte = 1 << 2
	hasRequestID byte = 1 << 3
	hasOk        byte = 1 << 4
	hasErr       byte = 1 << 5
	hasMeta      byte = 1 << 6
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	result := make([]byte, b.sizeBytes(msg))

	// Write fixed header
	result[0] = byte(msg.MsgType)
	result[1] = msg.Kind
	result[2] = msg.Reason

	var flags byte = 0
	pos := headerSize

	if msg.Resource != "" {
		flags |= hasResource
		pos = putBytes(result, pos, []byte(msg.Resource))
	}

	if msg.Requester != "" {
		flags |= hasRequester
		pos = putBytes(result, pos, []byte(msg.Requester))
	}

	if msg.Origin != "" {
		flags |= hasOrigin
		pos = putBytes(result, pos, []byte(msg.Origin))
	}

	if msg.RequestID > 0 {
		flags |= hasRequestID
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.RequestID)
		pos += 8
	}

	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	if msg.Err != "" {
		flags |= hasErr
		pos = putBytes(result, pos, []byte(msg.Err))
	}

	// Meta keeps the difference between nil and empty
	if msg.Meta != nil {
		flags |= hasMeta
		pos = putBytes(result, pos, msg.Meta)
	}

	// Set flags byte after knowing which fields are present
	result[3] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// Read fixed header
	msg.MsgType = common.MessageType(data[0])
	msg.Kind = data[1]
	msg.Reason = data[2]
	flags := data[3]

	pos := headerSize
	var err error

	readString := func(flag byte, name string) (string, error) {
		if flags&flag == 0 {
			return "", nil
		}
		var raw []byte
		raw, pos, err = getBytes(data, pos, name)
		return string(raw), err
	}

	if msg.Resource, err = readString(hasResource, "resource"); err != nil {
		return err
	}
	if msg.Requester, err = readString(hasRequester, "requester"); err != nil {
		return err
	}
	if msg.Origin, err = readString(hasOrigin, "origin"); err != nil {
		return err
	}

	// Read RequestID if present
	if flags&hasRequestID != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for request id")
		}
		msg.RequestID = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.RequestID = 0
	}

	// Read Ok if present
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	if msg.Err, err = readString(hasErr, "error"); err != nil {
		return err
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		var raw []byte
		if raw, pos, err = getBytes(data, pos, "meta"); err != nil {
			return err
		}

		// Allocate only if needed; an empty (not nil) slice is kept
		if msg.Meta == nil || cap(msg.Meta) < len(raw) {
			msg.Meta = make([]byte, len(raw))
		} else {
			msg.Meta = msg.Meta[:len(raw)]
		}
		copy(msg.Meta, raw)
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	// Add sizes for fields that require length encoding
	if msg.Resource != "" {
		size += 4 + len(msg.Resource)
	}
	if msg.Requester != "" {
		size += 4 + len(msg.Requester)
	}
	if msg.Origin != "" {
		size += 4 + len(msg.Origin)
	}
	if msg.RequestID > 0 {
		size += 8 // uint64
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

// putBytes writes a length prefixed byte slice at pos and returns the new position
func putBytes(dst []byte, pos int, src []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(src)))
	pos += 4
	copy(dst[pos:pos+len(src)], src)
	return pos + len(src)
}

// getBytes reads a length prefixed byte slice at pos. The result aliases data.
func getBytes(data []byte, pos int, name string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", name)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4

	if pos+n > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s data", name)
	}
	return data[pos : pos+n], pos + n, nil
}
