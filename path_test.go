package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathValid(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"single segment", "root", true},
		{"composite", "a.b.c", true},
		{"empty", "", false},
		{"trailing dot", "a.", false},
		{"leading dot", ".a", false},
		{"double dot", "a..b", false},
		{"underscore rejected", "a_b", false},
		{"dash rejected", "a-b", false},
		{"alnum mix", "a1.B2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath(tt.path)
			assert.Equal(t, tt.want, p.Valid())
		})
	}
}

func TestPathTooLong(t *testing.T) {
	long := strings.Repeat("a", maxPathBytes+1)
	assert.False(t, NewPath(long).Valid())
}

func TestPathTooManySegments(t *testing.T) {
	segs := make([]string, maxPathSegments+1)
	for i := range segs {
		segs[i] = "a"
	}
	assert.False(t, NewPath(strings.Join(segs, ".")).Valid())
}

func TestPathFrontBack(t *testing.T) {
	p := NewPath("a.b.c")
	front, ok := p.Front()
	assert.True(t, ok)
	assert.Equal(t, "a", front)

	back, ok := p.Back()
	assert.True(t, ok)
	assert.Equal(t, "c", back)
}

func TestPathPopFrontPopBack(t *testing.T) {
	p := NewPath("a.b.c")

	rest := p.PopFront()
	assert.True(t, rest.Valid())
	assert.Equal(t, "b.c", rest.String())

	head := p.PopBack()
	assert.True(t, head.Valid())
	assert.Equal(t, "a.b", head.String())

	single := NewPath("a")
	assert.False(t, single.PopFront().Valid())
	assert.False(t, single.PopBack().Valid())
}

func TestPathCompositeAndSize(t *testing.T) {
	assert.False(t, NewPath("a").Composite())
	assert.True(t, NewPath("a.b").Composite())
	assert.Equal(t, 3, NewPath("a.b.c").Size())
}

func TestPathAppend(t *testing.T) {
	root := Path{}
	p := root.Append("a")
	assert.Equal(t, "a", p.String())

	p2 := p.Append("b")
	assert.Equal(t, "a.b", p2.String())
}

func TestPathCopyIndependence(t *testing.T) {
	p := NewPath("a.b.c")
	q := p
	_ = q.PopFront()
	// popping on a copy must not affect the original.
	front, _ := p.Front()
	assert.Equal(t, "a", front)
}
