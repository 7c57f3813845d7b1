package main

import (
	"net/netip"

	"github.com/tinynet/uip/internal"
	"github.com/tinynet/uip/internal/config"
)

// newTapDriver creates (or attaches to) the configured TAP device and
// resolves the local MAC/IP the stack should answer to: an explicit
// cfg.Iface.MAC wins, otherwise the interface's own hardware address is
// queried.
func newTapDriver(cfg *config.Config, ipPrefix netip.Prefix) (*internal.Tap, [6]byte, [4]byte, error) {
	var zeroMAC [6]byte
	var zeroIP [4]byte

	tap, err := internal.NewTap(cfg.Iface.Name, ipPrefix)
	if err != nil {
		return nil, zeroMAC, zeroIP, err
	}

	localMAC := zeroMAC
	if cfg.Iface.MAC != "" {
		localMAC, err = parseMAC(cfg.Iface.MAC)
		if err != nil {
			tap.Close()
			return nil, zeroMAC, zeroIP, err
		}
	} else {
		localMAC, err = tap.HardwareAddress6()
		if err != nil {
			tap.Close()
			return nil, zeroMAC, zeroIP, err
		}
	}

	localIP := zeroIP
	if ipPrefix.IsValid() {
		localIP = ipPrefix.Addr().As4()
	} else {
		mask, err := tap.IPMask()
		if err != nil {
			tap.Close()
			return nil, zeroMAC, zeroIP, err
		}
		localIP = mask.Addr().As4()
	}

	return tap, localMAC, localIP, nil
}
