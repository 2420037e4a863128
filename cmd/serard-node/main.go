package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	httpgw "github.com/coderkalyan/goserard/pkg/gateway/http"
	"github.com/coderkalyan/goserard/pkg/metrics"
	"github.com/coderkalyan/goserard/pkg/serard"
	"github.com/coderkalyan/goserard/pkg/transport"
	"github.com/coderkalyan/goserard/pkg/transport/serial"
	"github.com/coderkalyan/goserard/pkg/transport/virtual"
)

const (
	defaultDevice     = "virtual"
	defaultNodeID     = 0x20
	defaultBaudRate   = 115200
	defaultHTTPAddr   = ":8090"
	defaultMetricAddr = ":9090"
)

func main() {
	log.SetLevel(log.InfoLevel)

	device := flag.String("i", defaultDevice, "transport: serial device path, host:port for TCP, or \"virtual\"")
	nodeID := flag.Int("n", defaultNodeID, "node id")
	baud := flag.Int("b", defaultBaudRate, "serial baud rate (serial transport only)")
	httpAddr := flag.String("http", defaultHTTPAddr, "introspection HTTP listen address")
	metricAddr := flag.String("metrics", defaultMetricAddr, "prometheus /metrics listen address")
	flag.Parse()

	// the transport and gateway packages take a structured slog.Logger;
	// logrus stays at this entrypoint for operator-facing CLI output.
	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	bus, err := openTransport(*device, *baud, slogger)
	if err != nil {
		log.Fatalf("could not open transport %v: %v", *device, err)
	}
	if err := bus.Connect(); err != nil {
		log.Fatalf("could not connect transport %v: %v", *device, err)
	}
	defer bus.Disconnect()

	node := serard.New(serard.NodeID(*nodeID), serard.NewHeapMemory(), serard.NewHeapMemory())

	registry := prometheus.NewRegistry()
	statsObserver := httpgw.NewStatsObserver()

	ra := serard.NewReassembler()
	sink := &frameSink{node: node, reassembler: ra, logger: slogger, startedAt: time.Now()}
	if err := bus.Subscribe(sink); err != nil {
		log.Fatalf("could not subscribe to transport: %v", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		log.Infof("serving prometheus metrics on %s", *metricAddr)
		if err := http.ListenAndServe(*metricAddr, metricsMux); err != nil {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()

	// NewServer installs statsObserver as node's Observer; compose in the
	// Prometheus observer afterwards so /stats and /metrics both see live
	// traffic.
	gwServer := httpgw.NewServer(node, statsObserver, slogger)
	node.SetObserver(serard.MultiObserver{metrics.New(registry), statsObserver})

	log.Infof("node %d running on %s transport, gateway on %s", *nodeID, *device, *httpAddr)
	if err := gwServer.ListenAndServe(*httpAddr); err != nil {
		log.Fatalf("gateway server stopped: %v", err)
	}
}

// frameSink adapts the transport's ByteSink interface onto a
// serard.Reassembler, feeding every received byte through it and logging
// completed transfers. A real application would dispatch Payload to
// whatever consumes it instead.
type frameSink struct {
	node        *serard.Serard
	reassembler *serard.Reassembler
	logger      *slog.Logger
	startedAt   time.Time
}

func (f *frameSink) HandleBytes(data []byte) {
	timestampUsec := uint64(time.Since(f.startedAt).Microseconds())
	for _, b := range data {
		if transfer := f.reassembler.Feed(f.node, timestampUsec, b); transfer != nil {
			f.logger.Info("transfer received",
				"port", transfer.Metadata.PortID,
				"source", transfer.Metadata.RemoteNodeID,
				"bytes", len(transfer.Payload))
		}
	}
}

func openTransport(device string, baud int, logger *slog.Logger) (transport.Bus, error) {
	switch {
	case device == "virtual":
		return virtual.NewLoopback(), nil
	case strings.Contains(device, ":"):
		return virtual.NewTCPBus(device, logger), nil
	default:
		return serial.New(device, baud, logger), nil
	}
}
