// Package timeouts defines shared timeout constants used across the shard
// and its decision units.
package timeouts

import "time"

// RPCRequest caps the wait for a single decision-unit reply on the bus.
const RPCRequest = time.Second

// BusConnect caps the total time spent retrying the initial bus connection.
const BusConnect = 30 * time.Second

// HealthProbe caps a single gRPC health check round trip.
const HealthProbe = 2 * time.Second

// Shutdown limits how long a service waits for in-flight work and telemetry
// flushes during graceful shutdown.
const Shutdown = 5 * time.Second
