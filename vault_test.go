package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRootIsEmptyAndNotExpired(t *testing.T) {
	va := NewVault()
	root := va.Root()
	require.NotNil(t, root)
	assert.False(t, root.Expired())
	assert.Equal(t, "root", root.Path())
	assert.Equal(t, 0, root.Depth())
}

func TestVaultDebugRendersLoadedValues(t *testing.T) {
	vol := NewVolume("vol", PriorityMedium)
	vol.Root().SetValue("k", NewU32Value(7))

	va := NewVault()
	_, ok := va.Root().LoadSubnodeTree(vol.Root())
	require.True(t, ok)

	out := va.Debug()
	assert.Contains(t, out, "root.vol.k")
}

func TestVaultSupportsMultipleIndependentVolumes(t *testing.T) {
	v1 := NewVolume("a", PriorityLow)
	v2 := NewVolume("b", PriorityLow)

	va := NewVault()
	_, ok := va.Root().LoadSubnodeTree(v1.Root())
	require.True(t, ok)
	_, ok = va.Root().LoadSubnodeTree(v2.Root())
	require.True(t, ok)

	_, ok = va.Root().OpenSubnode("a")
	assert.True(t, ok)
	_, ok = va.Root().OpenSubnode("b")
	assert.True(t, ok)
}
