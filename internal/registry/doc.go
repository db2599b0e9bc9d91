// Package registry provides the in-memory store of registered clients and
// their devices for Sol Core.
//
// A Client is a physical controller (typically an ESP32 board) tied to one
// location; it is the unit of authentication and connectivity. Devices are
// the individually addressable units a client owns.
//
// The registry is provisioned once at startup from static configuration.
// There is no runtime registration protocol: clients announce themselves
// only through authenticated heartbeats, which refresh their online status
// and last-seen time.
//
// # Concurrency
//
// All state lives behind a single RWMutex. Registry operations are
// in-memory and complete synchronously; callers must never hold results of
// one call as a lock over another (reads return deep copies). Concurrent
// control requests for the same device are last-write-wins on the boolean
// status, which is the intended semantics at this scale.
//
// # Security
//
// Auth keys are compared by exact match and never serialized outward;
// Snapshot redacts them unless secrets are explicitly requested, and the
// JSON mapping omits the field entirely as a second line of defence.
package registry
