package lpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt16BE(t *testing.T) {
	cases := []struct {
		in   []byte
		want int16
	}{
		{[]byte{0x00, 0x00}, 0},
		{[]byte{0x0B, 0xB8}, 3000},
		{[]byte{0xFF, 0x9C}, -100},
		{[]byte{0x7F, 0xFF}, 32767},
		{[]byte{0x80, 0x00}, -32768},
		{[]byte{0xFF, 0xFF}, -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Int16BE(tc.in), "% X", tc.in)
	}
}

func TestUint16BE(t *testing.T) {
	assert.Equal(t, uint16(0x1234), Uint16BE([]byte{0x12, 0x34}))
	assert.Equal(t, uint16(65535), Uint16BE([]byte{0xFF, 0xFF}))
}

func TestInt24BE(t *testing.T) {
	cases := []struct {
		in   []byte
		want int32
	}{
		{[]byte{0x00, 0x00, 0x00}, 0},
		{[]byte{0x06, 0x76, 0x5F}, 423519},
		{[]byte{0xF2, 0x96, 0x0A}, -879094},
		{[]byte{0x7F, 0xFF, 0xFF}, 8388607},
		{[]byte{0x80, 0x00, 0x00}, -8388608},
		{[]byte{0xFF, 0xFF, 0xFF}, -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Int24BE(tc.in), "% X", tc.in)
	}
}

func TestUint24BE(t *testing.T) {
	assert.Equal(t, uint32(0x0003E8), Uint24BE([]byte{0x00, 0x03, 0xE8}))
	assert.Equal(t, uint32(0xFFFFFF), Uint24BE([]byte{0xFF, 0xFF, 0xFF}))
}
