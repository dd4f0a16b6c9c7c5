package vault

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeSaveLoadRoundTrip(t *testing.T) {
	vol := NewVolume("root", PriorityMedium)
	vol.Root().SetValue("u32", NewU32Value(1))
	vol.Root().SetValue("str", NewStrValue("lorem ipsum"))
	vol.Root().SetValue("bin", NewBinValue([]byte{0xd, 0xe, 0xa, 0xd}))
	child, _ := vol.Root().CreateSubnode("child")
	child.SetValue("k", NewU64Value(42))

	dir := t.TempDir()
	path := filepath.Join(dir, "v.bin")
	require.NoError(t, vol.Save(path))

	loaded, err := LoadVolume(path)
	require.NoError(t, err)

	kind, ok := loaded.Root().GetValueKind("u32")
	require.True(t, ok)
	assert.Equal(t, KindU32, kind)

	v, ok := loaded.Root().GetValue("u32")
	require.True(t, ok)
	u32, _ := v.GetU32()
	assert.EqualValues(t, 1, u32)

	sv, ok := loaded.Root().GetValue("str")
	require.True(t, ok)
	str, _ := sv.GetStr()
	assert.Equal(t, "lorem ipsum", str)

	bv, ok := loaded.Root().GetValue("bin")
	require.True(t, ok)
	bin, _ := bv.GetBin()
	assert.Equal(t, []byte{0xd, 0xe, 0xa, 0xd}, bin)

	loadedChild, ok := loaded.Root().OpenSubnode("child")
	require.True(t, ok)
	cv, ok := loadedChild.GetValue("k")
	require.True(t, ok)
	u64, _ := cv.GetU64()
	assert.EqualValues(t, 42, u64)

	assert.Equal(t, PriorityMedium, loaded.Priority())
}

func TestVolumeSaveSkipsTombstonedSubtrees(t *testing.T) {
	vol := NewVolume("root", PriorityMedium)
	vol.Root().CreateSubnode("keep")
	vol.Root().CreateSubnode("drop")
	vol.Root().DeleteSubnodeTree("drop")

	dir := t.TempDir()
	path := filepath.Join(dir, "v.bin")
	require.NoError(t, vol.Save(path))

	loaded, err := LoadVolume(path)
	require.NoError(t, err)

	_, ok := loaded.Root().OpenSubnode("keep")
	assert.True(t, ok)
	_, ok = loaded.Root().OpenSubnode("drop")
	assert.False(t, ok)
}

func TestLoadVolumeRejectsMissingFile(t *testing.T) {
	_, err := LoadVolume(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestLoadVolumeRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := LoadVolume(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadVolumeRejectsWrongSignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a volume file at all"), 0o644))

	_, err := LoadVolume(path)
	assert.ErrorIs(t, err, ErrWrongSignature)
}

func TestLoadVolumeRejectsWrongEndianness(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_endian.bin")

	var buf bytes.Buffer
	order := hostByteOrder()
	var alternate binary.ByteOrder = binary.BigEndian
	if order == binary.BigEndian {
		alternate = binary.LittleEndian
	}
	require.NoError(t, writeLPBytes(&buf, binary.LittleEndian, signatureBytes))
	wrongMarker := endiannessMarker(alternate)
	buf.Write(wrongMarker[:])
	require.NoError(t, writeU32(&buf, order, 0))
	require.NoError(t, encodeNode(&buf, order, NewVolume("root", 0).Root()))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	_, err := LoadVolume(path)
	assert.ErrorIs(t, err, ErrWrongEndianness)
}

func TestVolumeExportImportTOML(t *testing.T) {
	vol := NewVolume("root", PriorityMedium)
	vol.Root().SetValue("port", NewU64Value(8080))
	child, _ := vol.Root().CreateSubnode("server")
	child.SetValue("host", NewStrValue("localhost"))

	var buf bytes.Buffer
	require.NoError(t, vol.ExportTOML(&buf))

	vol2 := NewVolume("root", PriorityMedium)
	require.NoError(t, vol2.ImportDefaultsTOML(bytes.NewReader(buf.Bytes())))

	v, ok := vol2.Root().GetValue("port")
	require.True(t, ok)
	port, _ := v.GetU64()
	assert.EqualValues(t, 8080, port)

	server, ok := vol2.Root().OpenSubnode("server")
	require.True(t, ok)
	hv, ok := server.GetValue("host")
	require.True(t, ok)
	host, _ := hv.GetStr()
	assert.Equal(t, "localhost", host)
}

func TestVolumeExportYAML(t *testing.T) {
	vol := NewVolume("root", PriorityMedium)
	vol.Root().SetValue("k", NewStrValue("v"))

	var buf bytes.Buffer
	require.NoError(t, vol.ExportYAML(&buf))
	assert.Contains(t, buf.String(), "k: v")
}

func TestVolumeDebug(t *testing.T) {
	vol := NewVolume("root", PriorityMedium)
	vol.Root().SetValue("k", NewU32Value(1))
	out := vol.Debug()
	assert.Contains(t, out, "root.k")
}
