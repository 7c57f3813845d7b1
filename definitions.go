// Package uip implements a small, user-space IPv4 networking stack:
// Ethernet framing, ARP resolution, IPv4 (with transmit-side fragmentation),
// ICMP echo/unreachable and UDP, driven by a single-threaded poll loop over
// a raw packet Driver. See package stack for the orchestration layer that
// ties the protocol packages together.
package uip

// IPProto represents the IP protocol number carried in an IPv4 header's
// Protocol field (and IPv6's Next Header field).
type IPProto uint8

// IP protocol numbers, see https://www.iana.org/assignments/protocol-numbers.
const (
	IPProtoHopByHop  IPProto = 0   // IPv6 Hop-by-Hop Option [RFC8200]
	IPProtoICMP      IPProto = 1   // Internet Control Message [RFC792]
	IPProtoIGMP      IPProto = 2   // Internet Group Management [RFC1112]
	IPProtoGGP       IPProto = 3   // Gateway-to-Gateway [RFC823]
	IPProtoIPv4      IPProto = 4   // IPv4 encapsulation [RFC2003]
	IPProtoST        IPProto = 5   // Stream [RFC1190, RFC1819]
	IPProtoTCP       IPProto = 6   // Transmission Control [RFC793]
	IPProtoCBT       IPProto = 7   // CBT [Ballardie]
	IPProtoEGP       IPProto = 8   // Exterior Gateway Protocol [RFC888]
	IPProtoIGP       IPProto = 9   // any private interior gateway
	IPProtoBBNRCCMON IPProto = 10  // BBN RCC Monitoring
	IPProtoNVP       IPProto = 11  // Network Voice Protocol [RFC741]
	IPProtoPUP       IPProto = 12  // PUP
	IPProtoARGUS     IPProto = 13  // ARGUS
	IPProtoEMCON     IPProto = 14  // EMCON
	IPProtoXNET      IPProto = 15  // Cross Net Debugger
	IPProtoCHAOS     IPProto = 16  // Chaos
	IPProtoUDP       IPProto = 17  // User Datagram [RFC768]
	IPProtoMUX       IPProto = 18  // Multiplexing
	IPProtoHMP       IPProto = 20  // Host Monitoring [RFC869]
	IPProtoRDP       IPProto = 27  // Reliable Data Protocol [RFC908]
	IPProtoIRTP      IPProto = 28  // Internet Reliable Transaction [RFC938]
	IPProtoNETBLT    IPProto = 30  // Bulk Data Transfer Protocol [RFC998]
	IPProtoDCCP      IPProto = 33  // Datagram Congestion Control Protocol [RFC4340]
	IPProtoIPv6      IPProto = 41  // IPv6 encapsulation [RFC2473]
	IPProtoIPv6Route IPProto = 43  // Routing Header for IPv6 [RFC8200]
	IPProtoIPv6Frag  IPProto = 44  // Fragment Header for IPv6 [RFC8200]
	IPProtoRSVP      IPProto = 46  // Reservation Protocol [RFC2205]
	IPProtoGRE       IPProto = 47  // Generic Routing Encapsulation [RFC2784]
	IPProtoESP       IPProto = 50  // Encap Security Payload [RFC4303]
	IPProtoAH        IPProto = 51  // Authentication Header [RFC4302]
	IPProtoIPv6ICMP  IPProto = 58  // ICMP for IPv6 [RFC8200]
	IPProtoIPv6NoNxt IPProto = 59  // No Next Header for IPv6 [RFC8200]
	IPProtoIPv6Opts  IPProto = 60  // Destination Options for IPv6 [RFC8200]
	IPProtoVRRP      IPProto = 112 // Virtual Router Redundancy Protocol
	IPProtoL2TP      IPProto = 115 // Layer Two Tunneling Protocol v3
	IPProtoISIS      IPProto = 124 // ISIS over IPv4
	IPProtoSCTP      IPProto = 132 // Stream Control Transmission Protocol
	IPProtoUDPLite   IPProto = 136 // UDPLite
	IPProtoMPLSInIP  IPProto = 137 // MPLS-in-IP
)

func (p IPProto) String() string {
	switch p {
	case IPProtoICMP:
		return "ICMP"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	case IPProtoIGMP:
		return "IGMP"
	case IPProtoIPv6:
		return "IPv6"
	case IPProtoGRE:
		return "GRE"
	case IPProtoESP:
		return "ESP"
	case IPProtoAH:
		return "AH"
	case IPProtoSCTP:
		return "SCTP"
	default:
		return "IPProto(" + itoa(uint8(p)) + ")"
	}
}

func itoa(v uint8) string {
	if v == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = '0' + byte(v%10)
		v /= 10
	}
	return string(buf[i:])
}
