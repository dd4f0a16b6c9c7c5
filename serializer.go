package vault

import (
	"encoding/binary"
	"io"
	"math"
	"unsafe"
)

var signatureBytes = []byte("=VOL")

// hostByteOrder reports this process's native byte order. The volume
// format always writes the root node in the writing host's own order and
// records which one it used; Load rejects a file written by a
// differently-ordered host rather than silently byte-swapping it.
func hostByteOrder() binary.ByteOrder {
	var probe uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&probe))
	if b[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// endiannessMarker is the exact 4 raw bytes this host writes for the
// endianness field: binary.LittleEndian.PutUint32(0) gives {0,0,0,0} and
// binary.BigEndian.PutUint32(1) gives {0,0,0,1}. The two differ, so
// comparing raw bytes (rather than decoding an integer with an as-yet-
// unknown order) is enough to both identify and validate the field in one
// step.
func endiannessMarker(order binary.ByteOrder) [4]byte {
	var m [4]byte
	if order == binary.LittleEndian {
		order.PutUint32(m[:], 0)
	} else {
		order.PutUint32(m[:], 1)
	}
	return m
}

func writeU32(w io.Writer, order binary.ByteOrder, v uint32) error {
	var b [4]byte
	order.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU64(w io.Writer, order binary.ByteOrder, v uint64) error {
	var b [8]byte
	order.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader, order binary.ByteOrder) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrTruncated
	}
	return order.Uint32(b[:]), nil
}

func readU64(r io.Reader, order binary.ByteOrder) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrTruncated
	}
	return order.Uint64(b[:]), nil
}

func writeLPBytes(w io.Writer, order binary.ByteOrder, data []byte) error {
	if err := writeU64(w, order, uint64(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readLPBytes(r io.Reader, order binary.ByteOrder, maxLen int) ([]byte, error) {
	n, err := readU64(r, order)
	if err != nil {
		return nil, err
	}
	if n > uint64(maxLen) {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

func encodeValue(w io.Writer, order binary.ByteOrder, name string, v Value) error {
	if err := writeLPBytes(w, order, []byte(name)); err != nil {
		return err
	}
	if err := writeU64(w, order, uint64(v.Kind())); err != nil {
		return err
	}
	switch v.Kind() {
	case KindU32:
		return writeU32(w, order, v.u32)
	case KindU64:
		return writeU64(w, order, v.u64)
	case KindF32:
		return writeU32(w, order, math.Float32bits(v.f32))
	case KindF64:
		return writeU64(w, order, math.Float64bits(v.f64))
	case KindStr:
		return writeLPBytes(w, order, []byte(v.str))
	case KindBin:
		return writeLPBytes(w, order, v.bin)
	default:
		return ErrUnknownValueKind
	}
}

func decodeValue(r io.Reader, order binary.ByteOrder) (string, Value, error) {
	nameBytes, err := readLPBytes(r, order, maxValueNameSize)
	if err != nil {
		return "", Value{}, err
	}
	kindNum, err := readU64(r, order)
	if err != nil {
		return "", Value{}, err
	}

	name := string(nameBytes)
	switch Kind(kindNum) {
	case KindU32:
		raw, err := readU32(r, order)
		if err != nil {
			return "", Value{}, err
		}
		return name, NewU32Value(raw), nil
	case KindU64:
		raw, err := readU64(r, order)
		if err != nil {
			return "", Value{}, err
		}
		return name, NewU64Value(raw), nil
	case KindF32:
		raw, err := readU32(r, order)
		if err != nil {
			return "", Value{}, err
		}
		return name, NewF32Value(math.Float32frombits(raw)), nil
	case KindF64:
		raw, err := readU64(r, order)
		if err != nil {
			return "", Value{}, err
		}
		return name, NewF64Value(math.Float64frombits(raw)), nil
	case KindStr:
		payload, err := readLPBytes(r, order, maxStrValueSize)
		if err != nil {
			return "", Value{}, err
		}
		return name, NewStrValue(string(payload)), nil
	case KindBin:
		payload, err := readLPBytes(r, order, maxBinValueSize)
		if err != nil {
			return "", Value{}, err
		}
		return name, NewBinValue(payload), nil
	default:
		return "", Value{}, ErrUnknownValueKind
	}
}

// EncodeNode writes n and its live (non-tombstoned) subtree to w using the
// §6.2 NODE grammar, in this host's native byte order.
func EncodeNode(n *Node, w io.Writer) error {
	return encodeNode(w, hostByteOrder(), n)
}

func encodeNode(w io.Writer, order binary.ByteOrder, n *Node) error {
	if err := writeLPBytes(w, order, []byte(n.Name())); err != nil {
		return err
	}

	type namedValue struct {
		name string
		val  Value
	}
	var values []namedValue
	n.ForEachValue(func(name string, v Value) {
		values = append(values, namedValue{name, v})
	})
	if err := writeU64(w, order, uint64(len(values))); err != nil {
		return err
	}
	for _, nv := range values {
		if err := encodeValue(w, order, nv.name, nv.val); err != nil {
			return err
		}
	}

	type namedChild struct {
		name  string
		child *Node
	}
	var children []namedChild
	n.ForEachSubnode(func(name string, c *Node) {
		if !c.Deleted() {
			children = append(children, namedChild{name, c})
		}
	})
	if err := writeU64(w, order, uint64(len(children))); err != nil {
		return err
	}
	for _, nc := range children {
		if err := encodeNode(w, order, nc.child); err != nil {
			return err
		}
	}
	return nil
}

// DecodeNode reads one NODE record (and its subtree) from r, assigning
// priority to every decoded node and depth to the root of the decoded
// subtree (its descendants get depth+1, depth+2, ...). Rejects inputs with
// an unknown value kind, an over-limit payload, or a node that would
// exceed maxSubnodes/maxValues/volumeMaxDepth.
func DecodeNode(r io.Reader, priority Priority, depth int) (*Node, error) {
	return decodeNode(r, hostByteOrder(), priority, depth, "")
}

func decodeNode(r io.Reader, order binary.ByteOrder, priority Priority, depth int, parentPath string) (*Node, error) {
	nameBytes, err := readLPBytes(r, order, maxValueNameSize)
	if err != nil {
		return nil, err
	}
	name := string(nameBytes)
	fullPath := name
	if parentPath != "" {
		fullPath = parentPath + "." + name
	}
	n := newNode(name, fullPath, priority, depth)

	valuesCount, err := readU64(r, order)
	if err != nil {
		return nil, err
	}
	if valuesCount > uint64(maxValues) {
		return nil, ErrCapacityExceeded
	}
	for i := uint64(0); i < valuesCount; i++ {
		vname, v, err := decodeValue(r, order)
		if err != nil {
			return nil, err
		}
		if !n.attributes.InsertWithLimitOrAssign(vname, v, maxValues) {
			return nil, ErrCapacityExceeded
		}
	}

	subnodesCount, err := readU64(r, order)
	if err != nil {
		return nil, err
	}
	if subnodesCount > uint64(maxSubnodes) {
		return nil, ErrCapacityExceeded
	}
	if subnodesCount > 0 && depth+1 > volumeMaxDepth {
		return nil, ErrDepthExceeded
	}
	for i := uint64(0); i < subnodesCount; i++ {
		child, err := decodeNode(r, order, priority, depth+1, fullPath)
		if err != nil {
			return nil, err
		}
		if !n.subnodes.InsertWithLimitOrAssign(child.Name(), child, maxSubnodes) {
			return nil, ErrCapacityExceeded
		}
	}

	return n, nil
}
