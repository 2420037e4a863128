package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransfer32Ascii123456789(t *testing.T) {
	raw := Transfer32Initial.Add([]byte("123456789"))
	assert.EqualValues(t, 0x1CF96D7C, raw)
	assert.EqualValues(t, 0xE3069283, raw.Finalize())
}

func TestTransfer32Residue(t *testing.T) {
	raw := Transfer32Initial.Add([]byte("123456789"))
	final := raw.Finalize()
	bytes := final.Bytes()
	residue := raw.Add(bytes[:])
	assert.EqualValues(t, Transfer32ResidueAfterXOR, residue.Finalize())
}
