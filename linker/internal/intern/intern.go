// Package intern assigns dense integer identifiers to keys.
//
// The linker uses it twice: signature keys are interned by value to
// deduplicate function types, and entity pointers are interned by identity
// to build the program-wide index spaces.
package intern

// Interner maps keys to ids 0..Len()-1 in first-seen order.
// Ids are never reassigned.
type Interner[K comparable] struct {
	ids  map[K]uint32
	keys []K
}

// New creates an empty interner.
func New[K comparable]() *Interner[K] {
	return &Interner[K]{ids: make(map[K]uint32)}
}

// Intern returns the id of k, assigning the next free id on first use.
func (in *Interner[K]) Intern(k K) uint32 {
	if id, ok := in.ids[k]; ok {
		return id
	}
	id := uint32(len(in.keys))
	in.ids[k] = id
	in.keys = append(in.keys, k)
	return id
}

// Lookup returns the id of k without assigning one.
func (in *Interner[K]) Lookup(k K) (uint32, bool) {
	id, ok := in.ids[k]
	return id, ok
}

// Key returns the key holding id.
func (in *Interner[K]) Key(id uint32) K {
	return in.keys[id]
}

// Len returns the number of interned keys.
func (in *Interner[K]) Len() int {
	return len(in.keys)
}

// Keys returns the interned keys in id order.
func (in *Interner[K]) Keys() []K {
	return append([]K(nil), in.keys...)
}
