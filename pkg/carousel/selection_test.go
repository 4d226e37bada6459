package carousel

import (
	"errors"
	"testing"
)

func TestNew_RejectsEmpty(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n); !errors.Is(err, ErrEmpty) {
			t.Errorf("New(%d): expected ErrEmpty, got %v", n, err)
		}
	}
}

func TestNew_StartsAtZero(t *testing.T) {
	s, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Index() != 0 {
		t.Errorf("expected index 0, got %d", s.Index())
	}
	if s.Len() != 4 {
		t.Errorf("expected len 4, got %d", s.Len())
	}
}

func TestAdvance_WrapsModuloLen(t *testing.T) {
	for n := 1; n <= 6; n++ {
		s, _ := New(n)
		for k := 1; k <= 3*n+1; k++ {
			got := s.Advance()
			if got != k%n {
				t.Fatalf("n=%d: after %d ticks expected %d, got %d", n, k, k%n, got)
			}
			if s.Index() != got {
				t.Fatalf("n=%d: Advance returned %d but Index is %d", n, got, s.Index())
			}
		}
	}
}

func TestSelect_SetsIndexRegardlessOfPrior(t *testing.T) {
	const n = 4
	for prior := 0; prior < n; prior++ {
		for target := 0; target < n; target++ {
			s, _ := New(n)
			for i := 0; i < prior; i++ {
				s.Advance()
			}
			if err := s.Select(target); err != nil {
				t.Fatalf("Select(%d) failed: %v", target, err)
			}
			if s.Index() != target {
				t.Errorf("prior=%d: expected %d, got %d", prior, target, s.Index())
			}
		}
	}
}

func TestSelect_OutOfRange(t *testing.T) {
	s, _ := New(4)
	s.Advance()

	tests := []int{-1, 4, 100}
	for _, target := range tests {
		err := s.Select(target)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Select(%d): expected ErrOutOfRange, got %v", target, err)
		}
		if s.Index() != 1 {
			t.Errorf("Select(%d): index changed to %d", target, s.Index())
		}
	}
}

func TestMarks_ExactlyOneActive(t *testing.T) {
	s, _ := New(5)
	for k := 0; k < 5; k++ {
		marks := s.Marks()
		if len(marks) != 5 {
			t.Fatalf("expected 5 marks, got %d", len(marks))
		}

		active := 0
		for i, m := range marks {
			if m {
				active++
				if i != s.Index() {
					t.Errorf("mark at %d but index is %d", i, s.Index())
				}
			}
			if m != s.IsActive(i) {
				t.Errorf("Marks()[%d]=%v disagrees with IsActive", i, m)
			}
		}
		if active != 1 {
			t.Errorf("expected exactly one active mark, got %d", active)
		}
		s.Advance()
	}
}
