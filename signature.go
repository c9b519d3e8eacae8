package ecskern

import "github.com/TheBitDrifter/mask"

// maskCapacity is how many low type ids github.com/TheBitDrifter/mask.Mask
// can track as a single bitset word group. Ids at or above it still work —
// Signature falls back to its canonical sorted array for them — they just
// don't get the O(1) bitset fast path on the query hot loop.
const maskCapacity = 256

// signatureHashBase is the multiplier from spec.md 3: h = Σ id[i]·53^(i+1).
const signatureHashBase = 53

// Signature is the canonical, order-insensitive identity of an archetype:
// the set of component type ids it carries. Internally the ids are kept
// sorted descending so that two signatures containing the same id
// multiset compare and hash identically (spec.md 3, invariant 6 of
// spec.md 8) — order only matters for that canonicalization, never for
// set semantics.
//
// A Signature also carries a github.com/TheBitDrifter/mask.Mask shadow of
// its own ids, maintained alongside the sorted array, so HasAll/HasAny can
// usually answer with a couple of word compares instead of a merge walk.
type Signature struct {
	ids  []TypeID
	bits mask.Mask
	h    uint64
	dirty bool
}

// Clear empties the signature in place, ready for reuse. World keeps one
// scratch Signature per structural call to avoid allocating a fresh one on
// every Set/Remove (spec.md 4.2).
func (s *Signature) Clear() {
	s.ids = s.ids[:0]
	s.bits = mask.Mask{}
	s.h = 0
	s.dirty = false
}

// Len reports how many type ids the signature carries.
func (s *Signature) Len() int { return len(s.ids) }

// Contains reports whether id is a member.
func (s *Signature) Contains(id TypeID) bool {
	if id < maskCapacity {
		return s.bits.ContainsAll(maskOf(id))
	}
	for _, v := range s.ids {
		if v == id {
			return true
		}
		if v < id {
			break
		}
	}
	return false
}

// Add inserts id, preserving non-increasing order and collapsing
// duplicates, per spec.md 4.2: walk the array, storing the larger of
// (carried, current) in place and carrying the smaller forward, then
// append whatever is left over.
func (s *Signature) Add(id TypeID) {
	if s.Contains(id) {
		return
	}
	carry := id
	for i := range s.ids {
		if carry > s.ids[i] {
			s.ids[i], carry = carry, s.ids[i]
		}
	}
	s.ids = append(s.ids, carry)
	if id < maskCapacity {
		s.bits.Mark(uint32(id))
	}
	s.dirty = true
}

// Remove deletes id if present, shifting left from the first match.
func (s *Signature) Remove(id TypeID) {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			if id < maskCapacity {
				s.bits.Unmark(uint32(id))
			}
			s.dirty = true
			return
		}
	}
}

// CopyFrom replaces the receiver's contents with other's, without
// aliasing other's backing array (the scratch signature is routinely
// copied out into a freshly owned Signature when an archetype is
// created — spec.md 4.4 calls this out explicitly).
func (s *Signature) CopyFrom(other *Signature) {
	if cap(s.ids) < len(other.ids) {
		s.ids = make([]TypeID, len(other.ids))
	} else {
		s.ids = s.ids[:len(other.ids)]
	}
	copy(s.ids, other.ids)
	s.bits = other.bits
	s.h = other.h
	s.dirty = other.dirty
}

// Clone returns an independent copy suitable for long-lived storage (an
// archetype's own signature, as opposed to a scratch signature that gets
// reused and mutated by the caller).
func (s *Signature) Clone() Signature {
	var out Signature
	out.CopyFrom(s)
	out.rehash()
	return out
}

// HasAll reports whether the receiver is a superset of other.
func (s *Signature) HasAll(other *Signature) bool {
	if s.bits.ContainsAll(other.bits) {
		return hasAllAbove(s.ids, other.ids, maskCapacity)
	}
	return false
}

// HasAny reports whether the receiver shares at least one id with other.
func (s *Signature) HasAny(other *Signature) bool {
	if s.bits.ContainsAny(other.bits) {
		return true
	}
	return hasAnyAbove(s.ids, other.ids, maskCapacity)
}

// hasAllAbove and hasAnyAbove cover the ids the bitset shadow cannot
// represent (>= maskCapacity); for the overwhelming majority of programs
// that register well under 256 distinct component types this degenerates
// to a no-op scan of an empty slice.
func hasAllAbove(haystack, needle []TypeID, floor TypeID) bool {
	for _, n := range needle {
		if n < floor {
			continue
		}
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasAnyAbove(haystack, needle []TypeID, floor TypeID) bool {
	for _, n := range needle {
		if n < floor {
			continue
		}
		for _, h := range haystack {
			if h == n {
				return true
			}
		}
	}
	return false
}

// Equal reports value equality: identical length and element-wise
// equality of the canonical sorted arrays (spec.md 3).
func (s *Signature) Equal(other *Signature) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for i := range s.ids {
		if s.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

// Hash returns h = Σ id[i]·53^(i+1), wrapping, recomputing only when the
// signature changed since the last call.
func (s *Signature) Hash() uint64 {
	if s.dirty {
		s.rehash()
	}
	return s.h
}

func (s *Signature) rehash() {
	var h uint64
	pow := uint64(signatureHashBase)
	for _, id := range s.ids {
		h += uint64(id) * pow
		pow *= signatureHashBase
	}
	s.h = h
	s.dirty = false
}

// maskOf returns a single-bit mask.Mask for id, used by Contains's fast
// path. Built fresh each call since mask.Mask is a small value type.
func maskOf(id TypeID) mask.Mask {
	var m mask.Mask
	m.Mark(uint32(id))
	return m
}
