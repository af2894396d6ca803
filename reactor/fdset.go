// File: reactor/fdset.go
// Author: momentics <momentics@gmail.com>
//
// Bitmap readiness set, decoupled from the native representation used by
// the wait call.

package reactor

import "math/bits"

// ReadySet is a growable bitmap of non-negative descriptors.
// The zero value is an empty set.
type ReadySet struct {
	words []uint64
	n     int
}

// Add inserts fd. Negative descriptors are ignored.
func (s *ReadySet) Add(fd int) {
	if fd < 0 {
		return
	}
	w := fd >> 6
	if w >= len(s.words) {
		grown := make([]uint64, w+1, 2*(w+1))
		copy(grown, s.words)
		s.words = grown
	}
	mask := uint64(1) << uint(fd&63)
	if s.words[w]&mask == 0 {
		s.words[w] |= mask
		s.n++
	}
}

// Remove deletes fd if present.
func (s *ReadySet) Remove(fd int) {
	if fd < 0 || fd>>6 >= len(s.words) {
		return
	}
	w, mask := fd>>6, uint64(1)<<uint(fd&63)
	if s.words[w]&mask != 0 {
		s.words[w] &^= mask
		s.n--
	}
}

// Contains reports whether fd is in the set.
func (s *ReadySet) Contains(fd int) bool {
	if fd < 0 || fd>>6 >= len(s.words) {
		return false
	}
	return s.words[fd>>6]&(uint64(1)<<uint(fd&63)) != 0
}

// Clear empties the set, keeping its storage.
func (s *ReadySet) Clear() {
	clear(s.words)
	s.n = 0
}

// Len returns the number of descriptors in the set.
func (s *ReadySet) Len() int {
	return s.n
}

// Max returns the highest descriptor, or -1 when empty.
func (s *ReadySet) Max() int {
	for w := len(s.words) - 1; w >= 0; w-- {
		if s.words[w] != 0 {
			return w<<6 + 63 - bits.LeadingZeros64(s.words[w])
		}
	}
	return -1
}

// Each calls fn for every descriptor in ascending order until fn returns false.
func (s *ReadySet) Each(fn func(fd int) bool) {
	for w, word := range s.words {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			if !fn(w<<6 + b) {
				return
			}
			word &= word - 1
		}
	}
}

// CopyFrom makes s an exact copy of src.
func (s *ReadySet) CopyFrom(src *ReadySet) {
	if cap(s.words) < len(src.words) {
		s.words = make([]uint64, len(src.words))
	} else {
		s.words = s.words[:len(src.words)]
	}
	copy(s.words, src.words)
	s.n = src.n
}

// Slice returns the descriptors in ascending order.
func (s *ReadySet) Slice() []int {
	out := make([]int, 0, s.n)
	s.Each(func(fd int) bool {
		out = append(out, fd)
		return true
	})
	return out
}
