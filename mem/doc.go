// Package mem provides BasicMemory, the byte-addressable store behind an
// evaluation.
//
// The store tracks three things per allocation: cell contents (with
// uninitialized cells distinguished from written ones), the relocation
// table holding the abstract pointers embedded in the cells, and liveness.
// Allocation identities are issued monotonically and never reused, so a
// dangling pointer keeps pointing at the dead allocation forever instead
// of aliasing whatever gets allocated next.
//
// Raw Write and Read are type-erased and succeed on any live, in-bounds
// span. ReadTyped is the machine's single type checkpoint: it fetches the
// span a type occupies and decodes it, reporting invalid_value against the
// requested type when the bytes do not satisfy its validity invariant.
package mem
