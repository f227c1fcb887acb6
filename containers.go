package osd

// Array is the ordered child list of an Array value.
type Array struct {
	items []*Value
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// At returns the element at i, or Unknown when i is out of range.
func (a *Array) At(i int) *Value {
	if a == nil || i < 0 || i >= len(a.items) {
		return Undefined()
	}
	return a.items[i]
}

// Append adds v at the end. A nil v is stored as Unknown.
func (a *Array) Append(v *Value) {
	a.items = append(a.items, adopt(v))
}

// Set replaces the element at i. Indexes past the end grow the array with
// Unknown elements; negative indexes are ignored.
func (a *Array) Set(i int, v *Value) {
	if i < 0 {
		return
	}
	for len(a.items) <= i {
		a.items = append(a.items, Undefined())
	}
	release(a.items[i])
	a.items[i] = adopt(v)
}

// Range calls fn for each element in order until fn returns false.
func (a *Array) Range(fn func(i int, v *Value) bool) {
	if a == nil {
		return
	}
	for i, it := range a.items {
		if !fn(i, it) {
			return
		}
	}
}

// Values returns a copy of the element slice. The elements themselves are
// shared with the array.
func (a *Array) Values() []*Value {
	if a == nil {
		return nil
	}
	return append([]*Value(nil), a.items...)
}

type mapEntry struct {
	key   string
	value *Value
}

// Map is the string-keyed child set of a Map value. Insertion order is kept;
// setting an existing key replaces the value in place.
type Map struct {
	entries []mapEntry
	index   map[string]int
}

func newMap() *Map { return &Map{index: make(map[string]int)} }

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the value for key, or Unknown when absent.
func (m *Map) Get(key string) *Value {
	if m == nil {
		return Undefined()
	}
	if i, ok := m.index[key]; ok {
		return m.entries[i].value
	}
	return Undefined()
}

// Lookup returns the value for key and whether it was present.
func (m *Map) Lookup(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].value, true
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[key]
	return ok
}

// Set stores v under key. A nil v is stored as Unknown.
func (m *Map) Set(key string, v *Value) {
	m.put(key, adopt(v))
}

func (m *Map) put(key string, v *Value) {
	if i, ok := m.index[key]; ok {
		release(m.entries[i].value)
		m.entries[i].value = v
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, value: v})
}

// Delete removes key, keeping the order of the remaining entries.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	i, ok := m.index[key]
	if !ok {
		return
	}
	release(m.entries[i].value)
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].key] = j
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v *Value) bool) {
	if m == nil {
		return
	}
	for _, e := range m.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}
