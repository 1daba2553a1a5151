package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterator(t *testing.T) {
	it := From([]int{5, 1, 4, 2, 3})

	assert.Equal(t, []int{4, 2}, it.Filter(func(v int) bool { return v%2 == 0 }).Collect())
	assert.Equal(t, 7.5, Fold(it, 0.0, func(acc float64, v int) float64 { return acc + float64(v)/2 }))
	assert.Nil(t, From([]int{}).Collect())
}

func TestFilterStopsEarly(t *testing.T) {
	var seen []int
	for v := range From([]int{1, 2, 3, 4}).Filter(func(v int) bool { return v > 1 }).Seq() {
		seen = append(seen, v)
		if v == 3 {
			break
		}
	}
	assert.Equal(t, []int{2, 3}, seen)
}
