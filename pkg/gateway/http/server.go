// Package http is a minimal introspection/control surface over a running
// node, in the same "thin wrapper around a ServeMux" shape as the
// reference CiA 309-5 gateway server — but this domain has no object
// dictionary to expose, so the surface is just stats and the
// subscription table rather than SDO read/write routing.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coderkalyan/goserard/pkg/serard"
)

// Server exposes /stats, /subscriptions, /subscribe and /unsubscribe over
// HTTP for one serard.Serard instance.
type Server struct {
	node     *serard.Serard
	logger   *slog.Logger
	serveMux *http.ServeMux
	stats    *StatsObserver
}

// NewServer builds a Server wired to node. If stats is non-nil it is
// also installed as node's Observer via SetObserver, so /stats reports
// live counters; passing nil still serves /subscriptions and the
// mutation routes, just without counters.
func NewServer(node *serard.Serard, stats *StatsObserver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gateway/http")

	s := &Server{node: node, logger: logger, stats: stats}
	if stats != nil {
		node.SetObserver(stats)
	}

	s.serveMux = http.NewServeMux()
	s.serveMux.HandleFunc("/stats", s.handleStats)
	s.serveMux.HandleFunc("/subscriptions", s.handleSubscriptions)
	s.serveMux.HandleFunc("/subscribe", s.handleSubscribe)
	s.serveMux.HandleFunc("/unsubscribe", s.handleUnsubscribe)

	s.logger.Info("initialized introspection endpoints")
	return s
}

// ListenAndServe blocks serving HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.serveMux)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, StatsSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

type subscriptionView struct {
	Kind                  string `json:"kind"`
	PortID                uint16 `json:"port_id"`
	Extent                int    `json:"extent"`
	TransferIDTimeoutUsec uint64 `json:"transfer_id_timeout_usec"`
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs := s.node.Subscriptions()
	views := make([]subscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, subscriptionView{
			Kind:                  sub.TransferKind.String(),
			PortID:                uint16(sub.PortID),
			Extent:                sub.Extent,
			TransferIDTimeoutUsec: sub.TransferIDTimeoutUsec,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type subscribeRequest struct {
	Kind                  string `json:"kind"`
	PortID                uint16 `json:"port_id"`
	Extent                int    `json:"extent"`
	TransferIDTimeoutUsec uint64 `json:"transfer_id_timeout_usec"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	kind, err := parseTransferKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	isNew, err := s.node.Subscribe(kind, serard.PortID(req.PortID), req.Extent, req.TransferIDTimeoutUsec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"new": isNew})
}

type unsubscribeRequest struct {
	Kind   string `json:"kind"`
	PortID uint16 `json:"port_id"`
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	kind, err := parseTransferKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	removed := s.node.Unsubscribe(kind, serard.PortID(req.PortID))
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func parseTransferKind(s string) (serard.TransferKind, error) {
	switch s {
	case "message":
		return serard.TransferKindMessage, nil
	case "request":
		return serard.TransferKindRequest, nil
	case "response":
		return serard.TransferKindResponse, nil
	default:
		return 0, errUnknownTransferKind(s)
	}
}

type errUnknownTransferKind string

func (e errUnknownTransferKind) Error() string { return "unknown transfer kind: " + string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
