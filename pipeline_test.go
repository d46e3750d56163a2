package brushwork

import (
	"sync/atomic"
	"testing"
)

func TestTask(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		size    int
	}{
		{"single worker", 1, 10},
		{"even split", 4, 16},
		{"uneven split", 3, 10},
		{"more workers than items", 8, 3},
		{"empty", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]int, tt.size)
			for i := range data {
				data[i] = i + 1
			}

			var calls, sum atomic.Int64
			task(tt.workers, data, func(v int) {
				calls.Add(1)
				sum.Add(int64(v))
			})

			if calls.Load() != int64(tt.size) {
				t.Errorf("fn called %d times, want %d", calls.Load(), tt.size)
			}
			if want := int64(tt.size * (tt.size + 1) / 2); sum.Load() != want {
				t.Errorf("sum = %d, want %d", sum.Load(), want)
			}
		})
	}
}

func TestMapTask(t *testing.T) {
	data := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	for _, workers := range []int{1, 2, 5, 9} {
		got := mapTask(workers, data, func(s string) int { return len(s) })
		if len(got) != len(data) {
			t.Fatalf("%d workers: %d results, want %d", workers, len(got), len(data))
		}
		for i, n := range got {
			if n != i+1 {
				t.Errorf("%d workers: result %d = %d, want %d", workers, i, n, i+1)
			}
		}
	}
}
