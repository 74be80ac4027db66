package chat

import (
	"encoding/binary"
	"fmt"
)

// DecodeColor formats the four bytes of color, in native byte order, as
// uppercase hex prefixed with '#'. The result always has eight hex digits,
// alpha byte included.
func DecodeColor(color int32) string {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], uint32(color))
	return fmt.Sprintf("#%X", b[:])
}

// wireColor truncates a JSON color (often an ARGB value above MaxInt32) to its low 32 bits.
func wireColor(v int64) string {
	return DecodeColor(int32(uint32(v)))
}
