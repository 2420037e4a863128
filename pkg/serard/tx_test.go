package serard

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxPushFramedSequence(t *testing.T) {
	want, err := hex.DecodeString(strings.ReplaceAll(
		"00 09 01 04 D2 04 FF FF D2 04 01 01 01 01 01 01 01 01 01 01 02 80 01 10 08 12 30 31 32 33 34 35 36 37 38 D2 EE 56 C8 00",
		" ", ""))
	if err != nil {
		t.Fatalf("bad hex literal: %v", err)
	}

	s := New(NodeID(1234), NewHeapMemory(), NewHeapMemory())

	var got []byte
	err = s.TxPush(TransferMetadata{
		Priority:     PriorityNominal,
		TransferKind: TransferKindMessage,
		PortID:       1234,
		RemoteNodeID: NodeIDUnset,
		TransferID:   0,
	}, []byte("012345678"), func(chunk []byte) bool {
		got = append(got, chunk...)
		return true
	})

	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTxPushInvalidPortID(t *testing.T) {
	s := New(NodeID(1234), NewHeapMemory(), NewHeapMemory())
	err := s.TxPush(TransferMetadata{
		TransferKind: TransferKindMessage,
		PortID:       SubjectIDMax + 1,
	}, nil, func(chunk []byte) bool { return true })
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTxPushEmitterAbort(t *testing.T) {
	s := New(NodeID(1234), NewHeapMemory(), NewHeapMemory())
	calls := 0
	err := s.TxPush(TransferMetadata{
		TransferKind: TransferKindMessage,
		PortID:       1234,
		RemoteNodeID: NodeIDUnset,
	}, make([]byte, 600), func(chunk []byte) bool {
		calls++
		return false
	})
	assert.ErrorIs(t, err, ErrEmitterAborted)
	assert.Equal(t, 1, calls)
}
