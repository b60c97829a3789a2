package streamx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapFilterTap(t *testing.T) {
	s := FromSlice([]int{1, 2, 3, 4})
	var tapped []int
	s = Tap(s, func(v int) { tapped = append(tapped, v) })
	s = Filter(s, func(v int) bool { return v%2 == 0 })
	doubled := Map(s, func(v int) int { return v * 2 })

	assert.Equal(t, []int{4, 8}, Collect(doubled))
	assert.Equal(t, []int{1, 2, 3, 4}, tapped)
}

func TestBufferUntil(t *testing.T) {
	s := FromSlice([]int{1, 2, 3, 4, 5})
	buffered := BufferUntil(s, func(v int) bool { return v == 3 })
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Collect(buffered))
}

func TestBufferUntilNeverMatches(t *testing.T) {
	s := FromSlice([]int{1, 2, 3})
	buffered := BufferUntil(s, func(v int) bool { return v == 99 })
	assert.Equal(t, []int{1, 2, 3}, Collect(buffered))
}

func TestMergeEmpty(t *testing.T) {
	out := Merge[int](nil)
	assert.Empty(t, Collect(out))
}

func TestMergePreservesPerSourceOrderAndCompletesOnAll(t *testing.T) {
	a := FromSlice([]int{1, 2, 3})
	b := FromSlice([]int{10, 20})
	merged := Collect(Merge([]Stream[int]{a, b}))
	assert.Len(t, merged, 5)

	var aSeen, bSeen []int
	for _, v := range merged {
		if v < 10 {
			aSeen = append(aSeen, v)
		} else {
			bSeen = append(bSeen, v)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, aSeen)
	assert.Equal(t, []int{10, 20}, bSeen)
}
