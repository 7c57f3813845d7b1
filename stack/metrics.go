package stack

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "uip"
	subsystem = "stack"
)

// Metrics holds the Prometheus instrumentation for one Stack. Unlike a
// multi-peer collector, these are plain, unlabelled Counters (plus one
// Gauge for ARP cache occupancy): a single stack instance has no peer
// dimension to label by.
type Metrics struct {
	framesReceived      prometheus.Counter
	framesSent          prometheus.Counter
	framesDropped       prometheus.Counter
	ipDropped           prometheus.Counter
	ipChecksumErrors    prometheus.Counter
	udpChecksumErrors   prometheus.Counter
	icmpEchoReplies     prometheus.Counter
	icmpUnreachableSent prometheus.Counter
	arpCacheEntries     prometheus.Gauge
}

// NewMetrics creates a Metrics registered against reg. If reg is nil, a
// fresh, private prometheus.Registry is used instead of the global
// DefaultRegisterer: a process may run more than one Stack (or test),
// each needing its own set of counters rather than colliding on shared
// metric names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := newMetrics()
	reg.MustRegister(
		m.framesReceived,
		m.framesSent,
		m.framesDropped,
		m.ipDropped,
		m.ipChecksumErrors,
		m.udpChecksumErrors,
		m.icmpEchoReplies,
		m.icmpUnreachableSent,
		m.arpCacheEntries,
	)
	return m
}

func newMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		framesReceived:      counter("frames_received_total", "Total Ethernet frames read from the driver."),
		framesSent:          counter("frames_sent_total", "Total Ethernet frames written to the driver."),
		framesDropped:       counter("frames_dropped_total", "Total inbound Ethernet frames dropped (bad size, unknown EtherType)."),
		ipDropped:           counter("ip_dropped_total", "Total inbound IPv4 datagrams dropped (validation failure or foreign destination)."),
		ipChecksumErrors:    counter("ip_checksum_errors_total", "Total inbound IPv4 datagrams dropped for header checksum mismatch."),
		udpChecksumErrors:   counter("udp_checksum_errors_total", "Total inbound UDP datagrams dropped for checksum mismatch."),
		icmpEchoReplies:     counter("icmp_echo_replies_total", "Total ICMP echo replies sent."),
		icmpUnreachableSent: counter("icmp_unreachable_sent_total", "Total ICMP destination-unreachable messages sent."),
		arpCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_cache_entries",
			Help:      "Current number of live entries in the ARP cache.",
		}),
	}
}
