package cobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodeAll(src []byte) []byte {
	dst := make([]byte, EncodedSize(len(src))+2)
	e := NewEncoder()
	e.Encode(dst, src)
	e.EncodeByte(dst, 0) // trailing delimiter, closes the final chunk
	return dst[:e.Len()]
}

func TestEncodeIncrementalVectors(t *testing.T) {
	cases := []struct {
		in       []byte
		expected []byte
	}{
		{[]byte{0x00}, []byte{0x01, 0x01, 0x00}},
		{[]byte{0x01}, []byte{0x02, 0x01, 0x00}},
		{[]byte{0x02}, []byte{0x02, 0x02, 0x00}},
		{[]byte{0x03}, []byte{0x02, 0x03, 0x00}},
		{[]byte{0x00, 0x00}, []byte{0x01, 0x01, 0x01, 0x00}},
		{[]byte{0x00, 0x01}, []byte{0x01, 0x02, 0x01, 0x00}},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, encodeAll(c.in))
	}
}

func TestEncodeMaximalChunkBreak(t *testing.T) {
	in := make([]byte, 255)
	for i := 1; i <= 0xFF; i++ {
		in[i-1] = byte(i)
	}

	expected := make([]byte, 258)
	expected[0] = 0xFF
	for i := 1; i <= 0xFE; i++ {
		expected[i] = byte(i)
	}
	expected[255] = 0x02
	expected[256] = 0xFF
	expected[257] = 0x00

	assert.Equal(t, expected, encodeAll(in))
}

func TestEncodedSizeBound(t *testing.T) {
	assert.Equal(t, 0, EncodedSize(0))
	assert.Equal(t, 2, EncodedSize(1))
	assert.Equal(t, 255, EncodedSize(254))
	assert.Equal(t, 257, EncodedSize(255))
}
