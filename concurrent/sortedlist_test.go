package concurrent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intLess(a, b int) bool { return a < b }

func TestSortedListPushOrdersElements(t *testing.T) {
	l := NewSortedList(intLess)
	for _, v := range []int{5, 1, 4, 2, 3} {
		l.Push(v)
	}

	var got []int
	l.ForEach(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 5, l.Size())
}

func TestSortedListFront(t *testing.T) {
	l := NewSortedList(intLess)
	_, ok := l.Front()
	require.False(t, ok)

	l.Push(3)
	l.Push(1)
	v, ok := l.Front()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSortedListFindFirstIf(t *testing.T) {
	l := NewSortedList(intLess)
	for _, v := range []int{1, 2, 3, 4} {
		l.Push(v)
	}

	v, ok := l.FindFirstIf(func(v int) bool { return v > 2 })
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = l.FindFirstIf(func(v int) bool { return v > 99 })
	assert.False(t, ok)
}

func TestSortedListRemoveIf(t *testing.T) {
	l := NewSortedList(intLess)
	for _, v := range []int{1, 2, 3, 4, 5} {
		l.Push(v)
	}

	removed := l.RemoveIf(func(v int) bool { return v%2 == 0 })
	assert.Equal(t, 2, removed)
	assert.Equal(t, 3, l.Size())

	var got []int
	l.ForEach(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{1, 3, 5}, got)
}

func TestSortedListConcurrentPushAndRemove(t *testing.T) {
	l := NewSortedList(intLess)
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				l.Push(base*100 + i)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 200, l.Size())

	removed := l.RemoveIf(func(v int) bool { return v%2 == 0 })
	assert.Equal(t, 200-removed, l.Size())
}
