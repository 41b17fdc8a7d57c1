package pkg

type Map[K comparable, V any] map[K]V

func (m Map[K, V]) Get(key K) V {
	return m[key]
}

func (m Map[K, V]) Set(key K, value V) {
	m[key] = value
}

func (m Map[K, V]) Has(key K) bool {
	_, ok := m[key]
	return ok
}

func (m Map[K, V]) Delete(key K) {
	delete(m, key)
}

func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func (m Map[K, V]) Clone() Map[K, V] {
	clone := make(Map[K, V], len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Map with stable insertion order. Used where declaration order matters,
// e.g. table fields and catalog entries.
type InsertSortMap[K comparable, V any] struct {
	Idx    Map[K, V]
	Sorted []K
}

func NewInsertSortMap[K comparable, V any]() *InsertSortMap[K, V] {
	return &InsertSortMap[K, V]{Idx: Map[K, V]{}, Sorted: []K{}}
}

func (m *InsertSortMap[K, V]) Len() int { return len(m.Sorted) }

func (m *InsertSortMap[K, V]) Get(key K) V { return m.Idx.Get(key) }

func (m *InsertSortMap[K, V]) Has(key K) bool { return m.Idx.Has(key) }

func (m *InsertSortMap[K, V]) Push(key K, value V) {
	if !m.Idx.Has(key) {
		m.Sorted = append(m.Sorted, key)
	}
	m.Idx.Set(key, value)
}

// At returns the value at insertion position i.
func (m *InsertSortMap[K, V]) At(i int) V { return m.Idx.Get(m.Sorted[i]) }
