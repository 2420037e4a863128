package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coderkalyan/goserard/pkg/serard"
)

func newTestServer() (*Server, *serard.Serard) {
	node := serard.New(serard.NodeID(1), serard.NewHeapMemory(), serard.NewHeapMemory())
	stats := NewStatsObserver()
	return NewServer(node, stats, nil), node
}

func TestHandleSubscribeAndSubscriptions(t *testing.T) {
	s, _ := newTestServer()

	body, _ := json.Marshal(subscribeRequest{Kind: "message", PortID: 1234, Extent: 32, TransferIDTimeoutUsec: 1000})
	req := httptest.NewRequest("POST", "/subscribe", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleSubscribe(rec, req)
	assert.Equal(t, 200, rec.Code)

	var subscribeResp map[string]bool
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subscribeResp))
	assert.True(t, subscribeResp["new"])

	listReq := httptest.NewRequest("GET", "/subscriptions", nil)
	listRec := httptest.NewRecorder()
	s.handleSubscriptions(listRec, listReq)

	var views []subscriptionView
	assert.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &views))
	if assert.Len(t, views, 1) {
		assert.Equal(t, "message", views[0].Kind)
		assert.Equal(t, uint16(1234), views[0].PortID)
		assert.Equal(t, 32, views[0].Extent)
	}
}

func TestHandleUnsubscribe(t *testing.T) {
	s, node := newTestServer()
	_, err := node.Subscribe(serard.TransferKindMessage, 1234, 32, 1000)
	assert.NoError(t, err)

	body, _ := json.Marshal(unsubscribeRequest{Kind: "message", PortID: 1234})
	req := httptest.NewRequest("POST", "/unsubscribe", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleUnsubscribe(rec, req)

	var resp map[string]bool
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["removed"])

	rec2 := httptest.NewRecorder()
	s.handleUnsubscribe(rec2, httptest.NewRequest("POST", "/unsubscribe", bytes.NewReader(body)))
	var resp2 map[string]bool
	assert.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))
	assert.False(t, resp2["removed"])
}

func TestHandleStatsReflectsTraffic(t *testing.T) {
	s, node := newTestServer()
	_, err := node.Subscribe(serard.TransferKindMessage, 1234, 32, 1000)
	assert.NoError(t, err)

	err = node.TxPush(serard.TransferMetadata{
		TransferKind: serard.TransferKindMessage,
		PortID:       1234,
		RemoteNodeID: serard.NodeIDUnset,
	}, []byte("hi"), func(chunk []byte) bool { return true })
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	s.handleStats(rec, req)

	var snap StatsSnapshot
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.FramesTransmitted)
}
