package testkit

import (
	"sync"
	"testing"
	"time"
)

var nowSeam = func() string { return "real" }

func TestSwapRestores(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &nowSeam, func() string { return "fake" })
		if got := nowSeam(); got != "fake" {
			t.Fatalf("swap not applied: %q", got)
		}
	})
	if got := nowSeam(); got != "real" {
		t.Fatalf("swap not restored: %q", got)
	}
}

func TestSerialDoesNotInterleave(t *testing.T) {
	var (
		mu  sync.Mutex
		seq []string
	)
	rec := func(s string) {
		mu.Lock()
		seq = append(seq, s)
		mu.Unlock()
	}

	t.Run("group", func(t *testing.T) {
		for _, name := range []string{"a", "b"} {
			name := name
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				Serial(t)
				rec(name + "-start")
				time.Sleep(20 * time.Millisecond)
				rec(name + "-end")
			})
		}
	})

	if len(seq) != 4 {
		t.Fatalf("seq = %v", seq)
	}
	for i := 0; i < 4; i += 2 {
		if seq[i][0] != seq[i+1][0] {
			t.Fatalf("interleaved: %v", seq)
		}
	}
}
