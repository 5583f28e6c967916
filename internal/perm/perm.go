// Package perm defines the fixed permission-bit vocabulary and the pure
// bitmask operations used by authorization checks.
//
// This package is an in-memory leaf with no I/O: it must not import the
// repository, service, or auth layers, and the bit positions are part of the
// stored data format and never change.
package perm

// Mask is a 32-bit permission bitmask as persisted on a user row.
type Mask uint32

const (
	// Admin grants every capability regardless of other bits.
	Admin Mask = 1 << 0

	// ReadAnalytics grants access to call-usage statistics.
	ReadAnalytics Mask = 1 << 1

	// ReadConversations grants access to conversation transcripts.
	ReadConversations Mask = 1 << 2
)

// known holds the closed set of individually recognized bits. A value outside
// this set, including 0 and any union of recognized bits, is not a valid
// input to Toggle or the check/set endpoints.
var known = [...]Mask{Admin, ReadAnalytics, ReadConversations}

// IsValid reports whether p is exactly one recognized single-bit value.
// Combinations are rejected at the API boundary even when each component bit
// is individually recognized.
func IsValid(p Mask) bool {
	for _, b := range known {
		if p == b {
			return true
		}
	}
	return false
}

// Check reports whether permissions satisfies required. The admin bit passes
// every check; otherwise at least one bit of required must be set in
// permissions. required may be a union of bits.
func Check(permissions, required Mask) bool {
	if permissions&Admin != 0 {
		return true
	}
	return permissions&required != 0
}

// Toggle flips bit in permissions and leaves all other bits unchanged. The
// caller is responsible for validating bit with IsValid first.
func Toggle(permissions, bit Mask) Mask {
	return permissions ^ bit
}
