package lpp

import "encoding/binary"

// Uint16BE assembles two big-endian bytes.
func Uint16BE(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// Int16BE reinterprets a big-endian 16-bit field as two's complement.
func Int16BE(b []byte) int16 {
	return int16(signExtend(uint32(Uint16BE(b)), 16))
}

// Uint24BE assembles three big-endian bytes.
func Uint24BE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Int24BE reinterprets a big-endian 24-bit field as two's complement.
func Int24BE(b []byte) int32 {
	return signExtend(Uint24BE(b), 24)
}

// signExtend maps an unsigned value of the given bit width onto its signed
// counterpart: anything above 2^(bits-1)-1 wraps to u - 2^bits.
func signExtend(u uint32, bits uint) int32 {
	maxPositive := uint32(1)<<(bits-1) - 1
	if u > maxPositive {
		return int32(int64(u) - int64(1)<<bits)
	}
	return int32(u)
}
