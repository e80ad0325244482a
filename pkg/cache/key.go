package cache

import (
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Key identifies a cached computation: a blake2b-256 digest over a
// namespace, the numeric parameters of the call and the content it was
// computed from.
type Key [blake2b.Size256]byte

// String returns the lowercase hex encoding of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyBuilder accumulates the parts of a Key. Each part is length or type
// prefixed so that different part sequences never collide.
type KeyBuilder struct {
	h hash.Hash
}

// NewKey starts a key in the given namespace.
func NewKey(namespace string) *KeyBuilder {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 only fails for keys longer than 64 bytes.
		panic(err)
	}
	b := &KeyBuilder{h: h}
	return b.String(namespace)
}

// Int adds an integer parameter.
func (b *KeyBuilder) Int(v int) *KeyBuilder {
	var buf [9]byte
	buf[0] = 'i'
	binary.BigEndian.PutUint64(buf[1:], uint64(int64(v)))
	b.h.Write(buf[:])
	return b
}

// OptionalInt adds a parameter that may be absent. Absent and zero are
// distinct.
func (b *KeyBuilder) OptionalInt(v *int) *KeyBuilder {
	if v == nil {
		b.h.Write([]byte{'n'})
		return b
	}
	return b.Int(*v)
}

// String adds a content part.
func (b *KeyBuilder) String(s string) *KeyBuilder {
	var buf [9]byte
	buf[0] = 's'
	binary.BigEndian.PutUint64(buf[1:], uint64(len(s)))
	b.h.Write(buf[:])
	b.h.Write([]byte(s))
	return b
}

// Sum finalizes the key.
func (b *KeyBuilder) Sum() Key {
	var k Key
	copy(k[:], b.h.Sum(nil))
	return k
}
