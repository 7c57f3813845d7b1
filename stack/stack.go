// Package stack wires Ethernet, ARP, IPv4, ICMP and UDP into a single
// poll-driven network stack over a raw packet Driver.
package stack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/tinynet/uip"
	"github.com/tinynet/uip/arp"
	"github.com/tinynet/uip/buffer"
	"github.com/tinynet/uip/ethernet"
	"github.com/tinynet/uip/internal"
	"github.com/tinynet/uip/ipv4"
	"github.com/tinynet/uip/ipv4/icmpv4"
	"github.com/tinynet/uip/udp"
)

// Driver is the raw packet source/sink a Stack polls and sends through:
// one complete Ethernet frame per Read, one complete Ethernet frame per
// Write. internal.Tap and internal.Bridge both satisfy this.
type Driver interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
}

// Config parameterizes a Stack.
type Config struct {
	LocalIP  [4]byte
	LocalMAC [6]byte
	Driver   Driver
	// ARPTimeout is the ARP cache entry lifetime. Defaults to 5 minutes.
	ARPTimeout time.Duration
	// ARPMinInterval bounds how often an unresolved destination may be
	// re-requested; it also doubles as the pending-entry TTL. Defaults
	// to 1 second.
	ARPMinInterval time.Duration
	Logger         *slog.Logger
	Metrics        *Metrics
}

// Stack ties together Ethernet framing, ARP resolution, IPv4 (with
// fragmentation), ICMP and a UDP port table, driven by a single Poll call
// per inbound frame: there is no internal concurrency.
type Stack struct {
	logger
	localIP  [4]byte
	localMAC [6]byte
	driver   Driver
	resolver *arp.Resolver
	out      *ipv4.Outbound
	udp      *udp.Table
	metrics  *Metrics

	validator uip.Validator
	rxbuf     [ethernet.MaxTransportUnit + ethernet.HeaderSize]byte
}

// New creates a Stack and wires its internal sender seams (Ethernet ->
// ARP resolver -> IPv4 Outbound -> UDP table) without emitting any
// traffic; call Init to send the startup gratuitous ARP.
func New(cfg Config) *Stack {
	if cfg.ARPTimeout == 0 {
		cfg.ARPTimeout = 5 * time.Minute
	}
	if cfg.ARPMinInterval == 0 {
		cfg.ARPMinInterval = time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	s := &Stack{
		logger:   logger{log: cfg.Logger},
		localIP:  cfg.LocalIP,
		localMAC: cfg.LocalMAC,
		driver:   cfg.Driver,
		metrics:  cfg.Metrics,
	}
	s.resolver = arp.NewResolver(arp.Config{
		LocalIP:     cfg.LocalIP,
		LocalMAC:    cfg.LocalMAC,
		Timeout:     cfg.ARPTimeout,
		MinInterval: cfg.ARPMinInterval,
		L2:          ethernetSender{s: s},
	})
	s.out = &ipv4.Outbound{LocalIP: cfg.LocalIP, Sender: ipSender{s: s}}
	s.udp = udp.NewTable(s.out)
	return s
}

// Init announces this host's presence with a gratuitous ARP request.
func (s *Stack) Init() error {
	return s.resolver.Init()
}

// UDPOpen registers h to receive datagrams addressed to port (udp_open).
func (s *Stack) UDPOpen(port uint16, h udp.Handler) {
	s.udp.Open(port, h)
}

// UDPClose unregisters the handler on port (udp_close).
func (s *Stack) UDPClose(port uint16) {
	s.udp.Close(port)
}

// UDPSend transmits data to dstIP:dstPort from srcPort (udp_send).
func (s *Stack) UDPSend(data []byte, srcPort uint16, dstIP [4]byte, dstPort uint16) error {
	return s.udp.Send(data, srcPort, dstIP, dstPort)
}

// ARPPrint writes the current ARP cache to w (arp_print). See
// [arp.Resolver.Print].
func (s *Stack) ARPPrint(w io.Writer) {
	s.resolver.Print(w)
}

// Poll asks the driver for one frame and, if present, synchronously drives
// it through the full receive pipeline (ethernet_poll). It returns
// immediately if the driver has nothing queued.
func (s *Stack) Poll(ctx context.Context) error {
	n, err := s.driver.Read(s.rxbuf[:])
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	s.metrics.framesReceived.Inc()
	s.metrics.arpCacheEntries.Set(float64(s.resolver.CacheLen()))
	return s.ethernetIn(s.rxbuf[:n])
}

// ethernetIn demultiplexes an inbound Ethernet frame to ARP or IPv4.
func (s *Stack) ethernetIn(frame []byte) error {
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		s.metrics.framesDropped.Inc()
		return nil
	}
	s.validator.ResetErr()
	efrm.ValidateSize(&s.validator)
	if s.validator.HasError() {
		s.metrics.framesDropped.Inc()
		return nil
	}

	et := efrm.EtherTypeOrSize()
	payload := efrm.Payload()
	switch et {
	case ethernet.TypeARP:
		if err := s.resolver.Demux(payload); err != nil {
			s.debug("arp:drop", slog.String("err", err.Error()))
		}
	case ethernet.TypeIPv4:
		s.ipIn(payload)
	default:
		s.metrics.framesDropped.Inc()
	}
	return nil
}

var errNoHandler = errors.New("stack: no handler registered for protocol")

// ipIn implements ip_in: header validation, checksum verification,
// destination-address filtering, upper-layer dispatch, and the
// destination-unreachable fallback when no handler claims the protocol.
func (s *Stack) ipIn(buf []byte) {
	ifrm, err := ipv4.NewFrame(buf)
	if err != nil {
		s.metrics.framesDropped.Inc()
		return
	}
	s.validator.ResetErr()
	ifrm.ValidateExceptCRC(&s.validator)
	if s.validator.HasError() {
		s.metrics.ipDropped.Inc()
		return
	}
	if ifrm.CRC() != ifrm.CalculateHeaderCRC() {
		s.metrics.ipChecksumErrors.Inc()
		return
	}
	if *ifrm.DestinationAddr() != s.localIP {
		s.metrics.ipDropped.Inc()
		return // no forwarding.
	}

	hl := ifrm.HeaderLength()
	tl := int(ifrm.TotalLength())
	srcIP := *ifrm.SourceAddr()
	payload := buf[hl:tl]

	var dispatchErr error
	var code icmpv4.CodeDestinationUnreachable
	switch ifrm.Protocol() {
	case uip.IPProtoICMP:
		dispatchErr = s.icmpIn(payload, srcIP)
	case uip.IPProtoUDP:
		dispatchErr = s.udpIn(payload, ifrm)
		code = icmpv4.CodePortUnreachable
	default:
		dispatchErr = errNoHandler
		code = icmpv4.CodeProtoUnreachable
	}

	if errors.Is(dispatchErr, errNoHandler) || errors.Is(dispatchErr, udp.ErrPortUnreachable) {
		s.metrics.icmpUnreachableSent.Inc()
		s.sendUnreachable(buf[:tl], srcIP, code)
	}
}

// icmpIn implements icmp_in: only echo requests draw a reply.
func (s *Stack) icmpIn(payload []byte, srcIP [4]byte) error {
	if len(payload) < 8 {
		return nil
	}
	frm, err := icmpv4.NewFrame(payload)
	if err != nil {
		return nil
	}
	if frm.Type() != icmpv4.TypeEcho {
		return nil
	}
	reply, err := icmpv4.EchoReply(payload)
	if err != nil {
		return err
	}
	s.metrics.icmpEchoReplies.Inc()
	return s.out.Send(reply, srcIP, uip.IPProtoICMP)
}

// udpIn implements udp_in's dispatch step; the port-unreachable fallback
// is handled by the caller, since building it needs the original IPv4
// header that udpIn's caller still has in scope.
func (s *Stack) udpIn(payload []byte, ifrm ipv4.Frame) error {
	ufrm, err := udp.NewFrame(payload)
	if err != nil {
		return nil
	}
	s.validator.ResetErr()
	ufrm.ValidateSize(&s.validator)
	if s.validator.HasError() {
		return nil
	}
	err = s.udp.Deliver(ufrm, ifrm)
	if errors.Is(err, udp.ErrPortUnreachable) {
		return err
	}
	if err != nil {
		s.metrics.udpChecksumErrors.Inc()
		return nil
	}
	return nil
}

// sendUnreachable builds and sends an ICMP destination-unreachable message
// quoting origDatagram (header still attached, per icmp_unreachable's
// contract).
func (s *Stack) sendUnreachable(origDatagram []byte, srcIP [4]byte, code icmpv4.CodeDestinationUnreachable) {
	ifrm, err := ipv4.NewFrame(origDatagram)
	if err != nil {
		return
	}
	msg, err := icmpv4.Unreachable(code, origDatagram, ifrm.HeaderLength())
	if err != nil {
		s.warn("icmp:unreachable-build-failed", slog.String("err", err.Error()))
		return
	}
	if err := s.out.Send(msg, srcIP, uip.IPProtoICMP); err != nil {
		s.warn("icmp:unreachable-send-failed", slog.String("err", err.Error()))
	}
}

// ethernetSender adapts Stack to arp.L2Sender, framing a payload for
// transmission through the driver.
type ethernetSender struct{ s *Stack }

func (e ethernetSender) SendEthernet(dst [6]byte, etype ethernet.Type, payload []byte) error {
	total := ethernet.HeaderSize + len(payload)
	if total < ethernet.HeaderSize+ethernet.MinTransportUnit {
		total = ethernet.HeaderSize + ethernet.MinTransportUnit
	}
	buf := make([]byte, total)
	efrm, err := ethernet.NewFrame(buf)
	if err != nil {
		return err
	}
	efrm.ClearHeader()
	*efrm.DestinationHardwareAddr() = dst
	*efrm.SourceHardwareAddr() = e.s.localMAC
	efrm.SetEtherType(etype)
	copy(buf[ethernet.HeaderSize:], payload)

	e.s.metrics.framesSent.Inc()
	_, err = e.s.driver.Write(buf)
	return err
}

// ipSender adapts Stack to ipv4.Sender, handing an encoded IPv4 datagram
// to the ARP resolver for link-address resolution (or queuing).
type ipSender struct{ s *Stack }

func (i ipSender) SendIPv4(datagram *buffer.Buffer, dstIP [4]byte) error {
	return i.s.resolver.Resolve(datagram, dstIP)
}

// logger mirrors the teacher's internet.logger: a thin slog wrapper
// shared by every level-specific call site.
type logger struct {
	log *slog.Logger
}

func (l logger) error(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelError, msg, attrs...)
}
func (l logger) warn(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelWarn, msg, attrs...)
}
func (l logger) info(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelInfo, msg, attrs...)
}
func (l logger) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelDebug, msg, attrs...)
}
