package params

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"
)

// HashMode selects the key order used when hashing a Set.
type HashMode int

const (
	// HashSorted hashes pairs in sorted key order. Equal content always hashes
	// equally, whatever order the keys were inserted in.
	HashSorted HashMode = iota
	// HashInsertionOrder hashes pairs in insertion order. It exists only for
	// parity with tracker stores written by builds that hashed this way.
	HashInsertionOrder
)

// Set is an ordered map of parameter names to values. Keys are unique and
// case-sensitive; iteration follows insertion order.
//
// A Set is not safe for concurrent mutation. Sets handed to processors are
// clones and are treated as read-only.
type Set struct {
	keys   []string
	values map[string]Value
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{values: make(map[string]Value)}
}

// FromStrings creates a Set of string values, inserted in sorted key order.
func FromStrings(m map[string]string) *Set {
	s := NewSet()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		s.Set(k, String(m[k]))
	}
	return s
}

// Set stores v under name. Replacing an existing key keeps its position.
func (s *Set) Set(name string, v Value) {
	if s.values == nil {
		s.values = make(map[string]Value)
	}
	if _, exists := s.values[name]; !exists {
		s.keys = append(s.keys, name)
	}
	s.values[name] = v
}

// Get returns the value stored under name.
func (s *Set) Get(name string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Keys returns the parameter names in insertion order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.keys)
}

// Len returns the number of parameters.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// GetString returns the canonical string form of name, or def when missing.
func (s *Set) GetString(name, def string) string {
	v, ok := s.Get(name)
	if !ok {
		return def
	}
	return v.String()
}

// GetInt returns name as an integer, or def when missing or not an integer.
func (s *Set) GetInt(name string, def int64) int64 {
	v, ok := s.Get(name)
	if !ok {
		return def
	}
	if i, ok := v.AsInt(); ok {
		return i
	}
	return def
}

// GetFloat returns name as a float, or def when missing or not a number.
func (s *Set) GetFloat(name string, def float64) float64 {
	v, ok := s.Get(name)
	if !ok {
		return def
	}
	if f, ok := v.AsFloat(); ok {
		return f
	}
	return def
}

// GetBool returns name as a boolean, or def when missing or not a boolean.
func (s *Set) GetBool(name string, def bool) bool {
	v, ok := s.Get(name)
	if !ok {
		return def
	}
	if b, ok := v.AsBool(); ok {
		return b
	}
	return def
}

// GetEnum returns the tag stored under name if it is one of allowed, else def.
func (s *Set) GetEnum(name string, allowed []string, def string) string {
	v, ok := s.Get(name)
	if !ok {
		return def
	}
	if slices.Contains(allowed, v.String()) {
		return v.String()
	}
	return def
}

// Merge copies every pair of other into s, overriding on key collision. Keys
// absent from other are kept.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		s.Set(k, other.values[k])
	}
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := NewSet()
	if s == nil {
		return c
	}
	c.keys = slices.Clone(s.keys)
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Equal reports whether s and other hold the same pairs, ignoring order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, k := range s.Keys() {
		a, _ := s.Get(k)
		b, ok := other.Get(k)
		if !ok || a.String() != b.String() {
			return false
		}
	}
	return true
}

// Hash returns the hex SHA-256 of the length-prefixed key and value pairs in
// sorted key order.
func (s *Set) Hash() string {
	return s.HashWith(HashSorted)
}

// HashWith hashes the set using the given key order.
func (s *Set) HashWith(mode HashMode) string {
	keys := s.Keys()
	if mode == HashSorted {
		slices.Sort(keys)
	}
	h := sha256.New()
	var size [8]byte
	field := func(b string) {
		binary.BigEndian.PutUint64(size[:], uint64(len(b)))
		h.Write(size[:])
		h.Write([]byte(b))
	}
	for _, k := range keys {
		v, _ := s.Get(k)
		field(k)
		field(v.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}
