package http

import "sync/atomic"

// StatsSnapshot is the JSON body served at /stats.
type StatsSnapshot struct {
	FramesTransmitted uint64 `json:"frames_transmitted"`
	FramesAccepted    uint64 `json:"frames_accepted"`
	HeaderCRCErrors   uint64 `json:"header_crc_errors"`
	PayloadCRCErrors  uint64 `json:"payload_crc_errors"`
	ActiveSessions    int64  `json:"active_sessions"`
}

// StatsObserver implements serard.Observer with plain atomic counters, so
// /stats can report a snapshot without depending on a metrics backend.
// A node wanting both Prometheus scraping and this JSON endpoint can
// compose this with pkg/metrics.Observer via serard.MultiObserver.
type StatsObserver struct {
	framesTransmitted atomic.Uint64
	framesAccepted    atomic.Uint64
	headerCRCErrors   atomic.Uint64
	payloadCRCErrors  atomic.Uint64
	activeSessions    atomic.Int64
}

func NewStatsObserver() *StatsObserver { return &StatsObserver{} }

func (s *StatsObserver) FrameTransmitted() { s.framesTransmitted.Add(1) }
func (s *StatsObserver) FrameAccepted()    { s.framesAccepted.Add(1) }
func (s *StatsObserver) HeaderCRCError()   { s.headerCRCErrors.Add(1) }
func (s *StatsObserver) PayloadCRCError()  { s.payloadCRCErrors.Add(1) }

func (s *StatsObserver) SessionCountChanged(active int) {
	s.activeSessions.Store(int64(active))
}

// Snapshot returns the current counter values.
func (s *StatsObserver) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesTransmitted: s.framesTransmitted.Load(),
		FramesAccepted:    s.framesAccepted.Load(),
		HeaderCRCErrors:   s.headerCRCErrors.Load(),
		PayloadCRCErrors:  s.payloadCRCErrors.Load(),
		ActiveSessions:    s.activeSessions.Load(),
	}
}
