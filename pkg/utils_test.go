package pkg_test

import (
	"testing"

	. "github.com/shiftdb/shiftdb/pkg"
)

func TestFilter(t *testing.T) {
	res := Filter([]int{1, 2, 3, 4, 5, 6}, func(i int) bool {
		return i%2 == 0
	})

	if len(res) != 3 {
		t.Errorf("Expected 3, got %d", len(res))
	}

	if res[0] != 2 || res[1] != 4 || res[2] != 6 {
		t.Errorf("Expected 2, 4, 6, got %d, %d, %d", res[0], res[1], res[2])
	}
}

func TestNumToInt(t *testing.T) {
	if NumToInt(1) != 1 {
		t.Errorf("Expected 1, got %d", NumToInt(1))
	}

	if NumToInt(1.1) != 1 {
		t.Errorf("Expected 1, got %d", NumToInt(1.1))
	}

	if NumToInt(int64(7)) != 7 {
		t.Errorf("Expected 7, got %d", NumToInt(int64(7)))
	}
}

func TestNumToFloat(t *testing.T) {
	if f, ok := NumToFloat(int64(3)); !ok || f != 3.0 {
		t.Errorf("Expected 3.0, got %v (%v)", f, ok)
	}

	if f, ok := NumToFloat(7.5); !ok || f != 7.5 {
		t.Errorf("Expected 7.5, got %v (%v)", f, ok)
	}

	if _, ok := NumToFloat("7.5"); ok {
		t.Error("Expected strings to not be numeric")
	}
}

func TestMap(t *testing.T) {
	m := Map[string, int]{}
	m.Set("a", 1)
	m.Set("b", 2)

	if !m.Has("a") || m.Get("b") != 2 {
		t.Errorf("Expected a and b, got %v", m)
	}

	if len(m.Keys()) != 2 {
		t.Errorf("Expected 2 keys, got %d", len(m.Keys()))
	}

	clone := m.Clone()
	m.Delete("a")
	if m.Has("a") {
		t.Error("Expected a to be deleted")
	}
	if !clone.Has("a") {
		t.Error("Expected the clone to keep a")
	}
}

func TestInsertSortMapKeepsOrder(t *testing.T) {
	m := NewInsertSortMap[string, int]()
	m.Push("c", 3)
	m.Push("a", 1)
	m.Push("b", 2)
	m.Push("a", 10)

	if m.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", m.Len())
	}

	want := []string{"c", "a", "b"}
	for i, key := range want {
		if m.Sorted[i] != key {
			t.Errorf("Expected %s at %d, got %s", key, i, m.Sorted[i])
		}
	}

	if m.Get("a") != 10 {
		t.Errorf("Expected push to overwrite, got %d", m.Get("a"))
	}

	if m.At(0) != 3 {
		t.Errorf("Expected 3 at position 0, got %d", m.At(0))
	}
}
