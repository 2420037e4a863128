// Package config loads a node's static configuration — identity,
// transport selection, and subscription list — from an .ini file via
// gopkg.in/ini.v1, the same library the reference object dictionary
// parser uses for its own section/key format.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/coderkalyan/goserard/pkg/serard"
)

// TransportKind selects which transport.Bus implementation a node uses.
type TransportKind string

const (
	TransportSerial  TransportKind = "serial"
	TransportVirtual TransportKind = "virtual"
	TransportTCP     TransportKind = "tcp"
)

// Subscription is one [subscription "name"] section of the config file.
type Subscription struct {
	Kind                  serard.TransferKind
	PortID                serard.PortID
	Extent                int
	TransferIDTimeoutUsec uint64
}

// NodeConfig is a node's full static configuration.
type NodeConfig struct {
	NodeID serard.NodeID

	Transport TransportKind
	Device    string // serial device path, or host:port for tcp
	BaudRate  int    // serial only

	Subscriptions []Subscription
}

// Load parses an .ini file at path into a NodeConfig.
//
// Expected layout:
//
//	[node]
//	id = 42
//
//	[transport]
//	kind = serial
//	device = /dev/ttyACM0
//	baud = 115200
//
//	[subscription.telemetry]
//	kind = message
//	port = 1234
//	extent = 64
//	transfer_id_timeout_usec = 2000000
func Load(path string) (*NodeConfig, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	return fromFile(file)
}

func fromFile(file *ini.File) (*NodeConfig, error) {
	cfg := &NodeConfig{}

	nodeSection := file.Section("node")
	id, err := nodeSection.Key("id").Uint()
	if err != nil {
		return nil, fmt.Errorf("config: [node] id: %w", err)
	}
	cfg.NodeID = serard.NodeID(id)

	transportSection := file.Section("transport")
	cfg.Transport = TransportKind(transportSection.Key("kind").MustString(string(TransportVirtual)))
	cfg.Device = transportSection.Key("device").String()
	cfg.BaudRate = transportSection.Key("baud").MustInt(115200)

	for _, section := range file.Sections() {
		name := section.Name()
		if len(name) < len("subscription") || name[:len("subscription")] != "subscription" {
			continue
		}
		sub, err := parseSubscription(section)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		cfg.Subscriptions = append(cfg.Subscriptions, sub)
	}

	return cfg, nil
}

func parseSubscription(section *ini.Section) (Subscription, error) {
	var sub Subscription

	switch kind := section.Key("kind").MustString("message"); kind {
	case "message":
		sub.Kind = serard.TransferKindMessage
	case "request":
		sub.Kind = serard.TransferKindRequest
	case "response":
		sub.Kind = serard.TransferKindResponse
	default:
		return sub, fmt.Errorf("unknown transfer kind %q", kind)
	}

	port, err := section.Key("port").Uint()
	if err != nil {
		return sub, fmt.Errorf("port: %w", err)
	}
	sub.PortID = serard.PortID(port)
	sub.Extent = section.Key("extent").MustInt(64)

	timeout, err := section.Key("transfer_id_timeout_usec").Uint64()
	if err != nil {
		timeout = 2_000_000
	}
	sub.TransferIDTimeoutUsec = timeout

	return sub, nil
}
