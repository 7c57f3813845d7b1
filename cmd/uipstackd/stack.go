package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinynet/uip/internal/config"
	"github.com/tinynet/uip/stack"
)

// newStack wires the configured ARP tunables, metrics registry and logger
// into a ready-to-Init stack.Stack over driver.
func newStack(cfg *config.Config, driver stack.Driver, localMAC [6]byte, localIP [4]byte, lg logger, reg *prometheus.Registry) *stack.Stack {
	return stack.New(stack.Config{
		LocalIP:        localIP,
		LocalMAC:       localMAC,
		Driver:         driver,
		ARPTimeout:     cfg.ARP.Timeout,
		ARPMinInterval: cfg.ARP.MinInterval,
		Logger:         lg,
		Metrics:        stack.NewMetrics(reg),
	})
}
