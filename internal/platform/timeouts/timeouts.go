// Package timeouts defines shared timeout constants used across the data
// layer. Centralizing these values prevents drift between callers and makes
// the durations discoverable.
package timeouts

import "time"

// Storage caps the wait time for a single backing store statement. Expiry
// surfaces to callers as a storage-unavailable failure.
const Storage = 5 * time.Second

// Shutdown limits how long process teardown waits for in-flight work.
const Shutdown = 5 * time.Second
