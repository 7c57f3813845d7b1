// Package udp implements encoding, decoding, checksum verification and
// port-keyed demultiplexing of UDP datagrams carried over IPv4.
package udp

// sizeHeader is the fixed UDP header length: source port, destination
// port, length, checksum, 2 bytes each.
const sizeHeader = 8
