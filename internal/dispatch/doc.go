// Package dispatch orchestrates the delivery of parsed commands.
//
// The dispatcher validates a command, resolves the target device against
// the registry when the command names a location or device, mutates the
// registry's boolean status for terminal states, and publishes the
// resolved command to the MQTT sink keyed by device category.
//
// Single-device deployments (a bare category such as the LED channel,
// with no location or name) bypass resolution entirely and publish
// directly.
//
// Timing semantics live in the controllers: for DELAYED_* and BLINK the
// registry mutation is advisory only — the dispatcher never simulates
// delays itself.
//
// The registry lock is never held across the publish call; the registry
// is mutated first, then the sink is invoked. Sink failures are not
// retried; they surface as ErrSink so the caller can tell the user that
// delivery is unconfirmed.
package dispatch
