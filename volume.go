package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Volume is a standalone, serializable tree of Nodes: a named root node
// plus the priority every node in the tree inherited from it at creation.
type Volume struct {
	name     string
	priority Priority
	root     *Node
}

// NewVolume creates a volume named name with the given priority and an
// empty root node.
func NewVolume(name string, priority Priority) *Volume {
	return &Volume{name: name, priority: priority, root: newNode(name, name, priority, 0)}
}

// Root returns the volume's root node.
func (vol *Volume) Root() *Node { return vol.root }

// Priority returns the volume's priority byte.
func (vol *Volume) Priority() Priority { return vol.priority }

// Name returns the volume's name (also the root node's name and path).
func (vol *Volume) Name() string { return vol.name }

// Save writes the volume's live (non-tombstoned) subtree to path in the
// §6.2 binary layout, in this host's native byte order. The write is
// atomic: the encoded image is staged in a sibling temp file and only
// renamed over path once it is fully flushed, so a crash or a concurrent
// Load mid-write never observes a half-written volume.
func (vol *Volume) Save(path string) error {
	var buf bytes.Buffer

	order := hostByteOrder()
	// The signature's own length prefix is pinned to LE, independent of
	// the host's order (§6.2): a reader must be able to recognize it
	// before it has learned which order the rest of the file uses.
	if err := writeLPBytes(&buf, binary.LittleEndian, signatureBytes); err != nil {
		return fmt.Errorf("vault: save %s: %w", path, err)
	}
	marker := endiannessMarker(order)
	if _, err := buf.Write(marker[:]); err != nil {
		return fmt.Errorf("vault: save %s: %w", path, err)
	}
	if err := writeU32(&buf, order, uint32(vol.priority)); err != nil {
		return fmt.Errorf("vault: save %s: %w", path, err)
	}
	if err := encodeNode(&buf, order, vol.root); err != nil {
		return fmt.Errorf("vault: save %s: %w", path, err)
	}

	if err := atomicWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("vault: save %s: %w", path, err)
	}
	return nil
}

// atomicWriteFile stages data in a temp file beside path, fsyncs it, then
// renames it into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadVolume reads a volume previously written by Save. It fails with
// ErrNotRegularFile / ErrEmptyFile / ErrWrongSignature / ErrWrongEndianness
// / ErrTrailingBytes, or one of the serialization errors from DecodeNode,
// without partially constructing a usable volume.
func LoadVolume(path string) (*Volume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("vault: load %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}
	if info.Size() == 0 {
		return nil, ErrEmptyFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vault: load %s: %w", path, err)
	}
	defer f.Close()

	order := hostByteOrder()

	// Read with the pinned LE length prefix first, matching how Save
	// wrote it, before anything about the file's own order is known.
	sig, err := readLPBytes(f, binary.LittleEndian, len(signatureBytes))
	if err == ErrPayloadTooLarge {
		return nil, ErrWrongSignature
	}
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, signatureBytes) {
		return nil, ErrWrongSignature
	}

	var markerBuf [4]byte
	if _, err := io.ReadFull(f, markerBuf[:]); err != nil {
		return nil, ErrTruncated
	}
	if markerBuf != endiannessMarker(order) {
		return nil, ErrWrongEndianness
	}

	priorityRaw, err := readU32(f, order)
	if err != nil {
		return nil, err
	}

	root, err := decodeNode(f, order, Priority(priorityRaw), 0, "")
	if err != nil {
		return nil, err
	}

	var extra [1]byte
	n, err := f.Read(extra[:])
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("vault: load %s: %w", path, err)
	}
	if n > 0 {
		return nil, ErrTrailingBytes
	}

	return &Volume{name: root.Name(), priority: Priority(priorityRaw), root: root}, nil
}

// Debug renders a human-readable dump of the volume's live tree. The
// engine itself never logs; callers that want this in a log feed the
// returned string to whatever logger they use.
func (vol *Volume) Debug() string {
	var b strings.Builder
	debugNode(&b, vol.root)
	return b.String()
}

func debugNode(b *strings.Builder, n *Node) {
	n.ForEachValue(func(name string, v Value) {
		fmt.Fprintf(b, "--> %d: %s.%s = ", n.Priority(), n.Path(), name)
		writeDebugValue(b, v)
		b.WriteByte('\n')
	})
	n.ForEachSubnode(func(_ string, c *Node) {
		if !c.Deleted() {
			debugNode(b, c)
		}
	})
}

// ExportTOML writes the volume's live tree as a nested TOML table: one
// table per node, one key per attribute. This is a human-editable side
// channel, not a second persistence format — it never replaces Save/Load
// as the authoritative, round-trip-guaranteed on-disk layout.
func (vol *Volume) ExportTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(nodeToMap(vol.root))
}

// ExportYAML writes the volume's live tree as nested YAML, the same shape
// as ExportTOML.
func (vol *Volume) ExportYAML(w io.Writer) error {
	data, err := yaml.Marshal(nodeToMap(vol.root))
	if err != nil {
		return fmt.Errorf("vault: export yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ImportDefaultsTOML decodes a TOML table and seeds the volume's root node
// from it: tables become subnodes, scalar keys become attributes.
// Unsupported shapes (arrays, tables nested past a node's value position)
// are skipped rather than erroring, matching the value-level capacity/type
// failures elsewhere in this package being silent.
func (vol *Volume) ImportDefaultsTOML(r io.Reader) error {
	var raw map[string]any
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("vault: import toml: %w", err)
	}
	importMapInto(vol.root, raw)
	return nil
}

func nodeToMap(n *Node) map[string]any {
	m := make(map[string]any)
	n.ForEachValue(func(name string, v Value) {
		m[name] = valueToAny(v)
	})
	n.ForEachSubnode(func(name string, c *Node) {
		if !c.Deleted() {
			m[name] = nodeToMap(c)
		}
	})
	return m
}

func valueToAny(v Value) any {
	switch v.Kind() {
	case KindU32:
		x, _ := v.GetU32()
		return x
	case KindU64:
		x, _ := v.GetU64()
		return x
	case KindF32:
		x, _ := v.GetF32()
		return x
	case KindF64:
		x, _ := v.GetF64()
		return x
	case KindStr:
		x, _ := v.GetStr()
		return x
	case KindBin:
		x, _ := v.GetBin()
		return x
	default:
		return nil
	}
}

func importMapInto(n *Node, m map[string]any) {
	for k, val := range m {
		switch vv := val.(type) {
		case map[string]any:
			if child, ok := n.CreateSubnode(k); ok {
				importMapInto(child, vv)
			}
		case int64:
			n.SetValue(k, NewU64Value(uint64(vv)))
		case float64:
			n.SetValue(k, NewF64Value(vv))
		case string:
			n.SetValue(k, NewStrValue(vv))
		default:
			// arrays, bools, and anything else outside the Value tag set
			// are silently skipped.
		}
	}
}
