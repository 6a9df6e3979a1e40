package types

// OrderedObjectMap is the live key -> NVMObject map compaction produces and
// the encoder consumes. Spec §9 calls for an explicit ordered-map
// abstraction rather than relying on any ambient default, because the
// encoder's placement decisions depend on iterating keys in the order they
// first appeared in the compacted log: a key, once present, keeps its
// position across overwrites; only a delete followed by a fresh write
// moves it to the end.
//
// No suitable third-party ordered-map library turned up anywhere in the
// example corpus (see DESIGN.md), so this is a small hand-rolled
// slice-plus-map structure: O(1) lookup/overwrite via the map, insertion
// order preserved via the slice.
type OrderedObjectMap struct {
	order []uint32
	data  map[uint32]*NVMObject
}

// NewOrderedObjectMap returns an empty OrderedObjectMap.
func NewOrderedObjectMap() *OrderedObjectMap {
	return &OrderedObjectMap{data: make(map[uint32]*NVMObject)}
}

// Set inserts obj, or overwrites the existing entry for obj.Key in place
// without changing its position in iteration order.
func (m *OrderedObjectMap) Set(obj NVMObject) {
	if _, exists := m.data[obj.Key]; !exists {
		m.order = append(m.order, obj.Key)
	}
	stored := obj
	m.data[obj.Key] = &stored
}

// Delete removes key from the map. A later Set for the same key appends it
// at the end of iteration order, as a fresh first occurrence.
func (m *OrderedObjectMap) Delete(key uint32) {
	if _, exists := m.data[key]; !exists {
		return
	}
	delete(m.data, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get returns the live object for key, if present.
func (m *OrderedObjectMap) Get(key uint32) (NVMObject, bool) {
	v, ok := m.data[key]
	if !ok {
		return NVMObject{}, false
	}
	return *v, true
}

// Len returns the number of live keys.
func (m *OrderedObjectMap) Len() int {
	return len(m.order)
}

// Keys returns the live keys in insertion order. The returned slice is a
// copy; mutating it does not affect the map.
func (m *OrderedObjectMap) Keys() []uint32 {
	out := make([]uint32, len(m.order))
	copy(out, m.order)
	return out
}

// Objects returns the live objects in insertion order. The returned slice
// is a copy; mutating it does not affect the map.
func (m *OrderedObjectMap) Objects() []NVMObject {
	out := make([]NVMObject, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, *m.data[k])
	}
	return out
}
