package codec

// ByteOrder selects the wire byte order for multi-byte integers, enum values,
// group tags, and bit-field spans. Big-endian is the default, matching the
// convention of the definition format.
type ByteOrder string

const (
	BigEndian    ByteOrder = "big"
	LittleEndian ByteOrder = "little"
)

// Valid reports whether the order is one of the two allowed values.
func (o ByteOrder) Valid() bool {
	return o == BigEndian || o == LittleEndian
}

// putUint writes the low len(dst) bytes of v into dst in this order.
func (o ByteOrder) putUint(dst []byte, v uint64) {
	n := len(dst)
	for i := 0; i < n; i++ {
		shift := uint(8 * (n - 1 - i))
		if o == LittleEndian {
			shift = uint(8 * i)
		}
		dst[i] = byte(v >> shift)
	}
}

// readUint reads len(src) bytes (at most 8) as an unsigned integer.
func (o ByteOrder) readUint(src []byte) uint64 {
	var v uint64
	n := len(src)
	for i := 0; i < n; i++ {
		shift := uint(8 * (n - 1 - i))
		if o == LittleEndian {
			shift = uint(8 * i)
		}
		v |= uint64(src[i]) << shift
	}
	return v
}

// readInt reads len(src) bytes as a signed or unsigned integer, widening to
// int64. For signed values the high bit of the span sign-extends.
func (o ByteOrder) readInt(src []byte, signed bool) int64 {
	v := o.readUint(src)
	bits := uint(len(src) * 8)
	if signed && bits < 64 && v&(1<<(bits-1)) != 0 {
		return int64(v) - (1 << bits)
	}
	return int64(v)
}
