package arp

import (
	"fmt"
	"io"
	"time"

	"github.com/tinynet/uip/buffer"
	"github.com/tinynet/uip/ethernet"
	"github.com/tinynet/uip/internal/ttlmap"
)

// L2Sender is the seam a Resolver uses to hand a fully-formed payload down
// to Ethernet for framing and transmission, breaking the ARP/Ethernet
// cyclic dependency: Ethernet's demux needs to reach ARP, and ARP's
// outbound path needs to reach Ethernet's encapsulation.
type L2Sender interface {
	SendEthernet(dst [6]byte, etype ethernet.Type, payload []byte) error
}

// Config parameterizes a Resolver with this host's identity and the two
// cache lifetimes.
type Config struct {
	LocalIP  [4]byte
	LocalMAC [6]byte
	// Timeout is the ARP cache entry lifetime (ARP_TIMEOUT_SEC).
	Timeout time.Duration
	// MinInterval is the pending-entry lifetime, which doubles as the
	// minimum spacing between ARP requests for the same destination
	// (ARP_MIN_INTERVAL).
	MinInterval time.Duration
	L2          L2Sender
}

// Resolver maps IPv4 addresses to Ethernet hardware addresses. It holds an
// ARP cache (learned by observing any valid ARP traffic, per the
// gratuitous-learning rule) and a single-slot-per-destination pending-send
// table that defers an outbound datagram until its destination resolves.
type Resolver struct {
	localIP  [4]byte
	localMAC [6]byte
	cache    *ttlmap.Map[[4]byte, [6]byte]
	pending  *ttlmap.Map[[4]byte, *buffer.Buffer]
	l2       L2Sender
}

// NewResolver creates a Resolver and emits no traffic; call Init to send
// the startup gratuitous ARP.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		localIP:  cfg.LocalIP,
		localMAC: cfg.LocalMAC,
		cache:    ttlmap.New[[4]byte, [6]byte](cfg.Timeout, 0),
		pending:  ttlmap.New[[4]byte, *buffer.Buffer](cfg.MinInterval, 0),
		l2:       cfg.L2,
	}
}

// Init announces this host's presence with a gratuitous ARP request for
// its own address, pre-populating peers' caches.
func (r *Resolver) Init() error {
	return r.request(r.localIP)
}

// Demux processes an inbound ARP frame (arp_in). Invalid frames are
// dropped silently. Any valid sender address is learned unconditionally,
// even from a request; if a datagram was queued awaiting that sender's
// resolution it is flushed immediately. Absent a pending datagram, a
// request targeting this host draws a reply.
func (r *Resolver) Demux(buf []byte) error {
	afrm, err := NewFrame(buf)
	if err != nil {
		return err
	}
	hwt, hlen := afrm.Hardware()
	ptt, ilen := afrm.Protocol()
	op := afrm.Operation()
	if hwt != 1 || ptt != ethernet.TypeIPv4 || hlen != 6 || ilen != 4 {
		return errShortARP
	}
	if op != OpRequest && op != OpReply {
		return errShortARP
	}
	senderHW, senderIP4 := afrm.Sender4()
	_, targetIP4 := afrm.Target4()

	var senderIP [4]byte
	copy(senderIP[:], senderIP4[:])
	r.cache.Set(senderIP, *senderHW)

	if pendingBuf, ok := r.pending.Get(senderIP); ok {
		err := r.l2.SendEthernet(*senderHW, ethernet.TypeIPv4, pendingBuf.Data())
		r.pending.Delete(senderIP)
		return err
	}

	if op == OpRequest && *targetIP4 == r.localIP {
		return r.reply(senderIP, *senderHW)
	}
	return nil
}

// Resolve hands datagram to Ethernet for transmission to dstIP (arp_out).
// If dstIP is cached, the datagram is sent immediately. If a resolution is
// already in flight for dstIP, datagram is dropped silently — this is the
// deliberate single-pending-slot simplification, not a retry mechanism.
// Otherwise datagram is deep-copied into the pending table and a request
// is emitted.
func (r *Resolver) Resolve(datagram *buffer.Buffer, dstIP [4]byte) error {
	if mac, ok := r.cache.Get(dstIP); ok {
		return r.l2.SendEthernet(mac, ethernet.TypeIPv4, datagram.Data())
	}
	if r.pending.Has(dstIP) {
		return nil
	}
	copied := new(buffer.Buffer)
	copied.Copy(datagram)
	r.pending.Set(dstIP, copied)
	return r.request(dstIP)
}

// request emits an ARP request (opcode 1) for targetIP, broadcast.
func (r *Resolver) request(targetIP [4]byte) error {
	var buf [sizeHeaderv4]byte
	frm, err := NewFrame(buf[:])
	if err != nil {
		return err
	}
	frm.SetHardware(1, 6)
	frm.SetProtocol(ethernet.TypeIPv4, 4)
	frm.SetOperation(OpRequest)
	senderHW, senderIP := frm.Sender4()
	*senderHW = r.localMAC
	*senderIP = r.localIP
	targetHW, targetIP4 := frm.Target4()
	*targetHW = [6]byte{}
	*targetIP4 = targetIP
	return r.l2.SendEthernet(ethernet.BroadcastAddr(), ethernet.TypeARP, buf[:])
}

// reply emits an ARP reply (opcode 2) to targetIP/targetMAC.
func (r *Resolver) reply(targetIP [4]byte, targetMAC [6]byte) error {
	var buf [sizeHeaderv4]byte
	frm, err := NewFrame(buf[:])
	if err != nil {
		return err
	}
	frm.SetHardware(1, 6)
	frm.SetProtocol(ethernet.TypeIPv4, 4)
	frm.SetOperation(OpReply)
	senderHW, senderIP := frm.Sender4()
	*senderHW = r.localMAC
	*senderIP = r.localIP
	targetHW, targetIP4 := frm.Target4()
	*targetHW = targetMAC
	*targetIP4 = targetIP
	return r.l2.SendEthernet(targetMAC, ethernet.TypeARP, buf[:])
}

// CacheLen returns the number of live entries in the ARP cache, for
// metrics/debug reporting.
func (r *Resolver) CacheLen() int { return r.cache.Len() }

// Print writes the current ARP cache contents to w, one "ip mac age" line
// per entry (arp_print).
func (r *Resolver) Print(w io.Writer) {
	r.cache.Foreach(func(ip [4]byte, mac [6]byte, age time.Duration) {
		fmt.Fprintf(w, "%d.%d.%d.%d %02x:%02x:%02x:%02x:%02x:%02x %s\n",
			ip[0], ip[1], ip[2], ip[3],
			mac[0], mac[1], mac[2], mac[3], mac[4], mac[5],
			age.Round(time.Second))
	})
}
