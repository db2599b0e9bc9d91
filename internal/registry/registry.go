package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/solhome/sol-core/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the process-wide store of clients and their devices.
//
// It is constructed once at startup from static configuration and torn
// down at process exit; there is no persistence. All public methods are
// thread-safe and all reads return deep copies.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	// order preserves configuration order for stable snapshots.
	order []string

	offlineAfter time.Duration
	logger       Logger
	now          func() time.Time
}

// New creates a registry provisioned from configuration.
func New(cfg config.RegistryConfig) *Registry {
	r := &Registry{
		clients:      make(map[string]*Client, len(cfg.Clients)),
		order:        make([]string, 0, len(cfg.Clients)),
		offlineAfter: cfg.OfflineAfter,
		logger:       noopLogger{},
		now:          time.Now,
	}

	for _, cc := range cfg.Clients {
		client := &Client{
			ID:       cc.ID,
			Name:     cc.Name,
			Location: cc.Location,
			AuthKey:  cc.AuthKey,
			Firmware: cc.Firmware,
			Devices:  make([]Device, 0, len(cc.Devices)),
		}
		for _, dc := range cc.Devices {
			dev := Device{
				ID:   dc.ID,
				Name: dc.Name,
				Type: DeviceType(strings.ToLower(dc.Type)),
				Features: Features{
					Dimmable:     dc.Features.Dimmable,
					SpeedControl: dc.Features.SpeedControl,
					HasTimer:     dc.Features.HasTimer,
					HasSchedule:  dc.Features.HasSchedule,
				},
			}
			// Value is only meaningful on devices that declare an
			// intensity-style capability.
			if dc.Value != nil && (dc.Features.Dimmable || dc.Features.SpeedControl) {
				v := *dc.Value
				dev.Value = &v
			}
			client.Devices = append(client.Devices, dev)
		}
		r.clients[client.ID] = client
		r.order = append(r.order, client.ID)
	}

	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// FindClient retrieves a client by ID.
// Returns ErrClientNotFound if the client does not exist.
// The returned client is a deep copy; callers can safely modify it.
func (r *Registry) FindClient(clientID string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	return client.DeepCopy(), nil
}

// FindDeviceByIdentity resolves a natural-language device reference to a
// concrete (clientID, deviceID) pair.
//
// Matching rules:
//   - location: exact match against the client's location
//   - deviceType: exact match against the device's type
//   - name: case-insensitive match; an empty name selects the first
//     device of the type (the default/primary device)
func (r *Registry) FindDeviceByIdentity(location string, deviceType DeviceType, name string) (clientID, deviceID string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		client := r.clients[id]
		if client.Location != location {
			continue
		}
		for _, dev := range client.Devices {
			if dev.Type != deviceType {
				continue
			}
			if name == "" || strings.EqualFold(dev.Name, name) {
				return client.ID, dev.ID, nil
			}
		}
	}

	return "", "", ErrDeviceNotFound
}

// Authenticate checks a client's shared secret.
//
// The key may arrive as a request body field or a bearer token; both forms
// are compared by exact match against the stored secret. The returned
// client is a deep copy with the secret redacted.
//
// An unknown client and a wrong key both yield ErrAuthFailed so the
// response cannot be used to probe for client IDs.
func (r *Registry) Authenticate(clientID, key string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[clientID]
	if !ok {
		return nil, ErrAuthFailed
	}
	if key == "" || client.AuthKey != key {
		return nil, ErrAuthFailed
	}

	cpy := client.DeepCopy()
	cpy.AuthKey = ""
	return cpy, nil
}

// SetDeviceState sets a device's boolean status.
//
// On success the owning client is marked online and its last-seen time is
// refreshed. Returns ErrClientNotFound or ErrDeviceNotFound when the
// target is unknown; nothing is mutated in that case.
func (r *Registry) SetDeviceState(clientID, deviceID string, status bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	for i := range client.Devices {
		if client.Devices[i].ID != deviceID {
			continue
		}
		client.Devices[i].Status = status
		client.IsOnline = true
		client.LastSeen = r.now()
		r.logger.Debug("device state updated",
			"client_id", clientID,
			"device_id", deviceID,
			"status", status,
		)
		return nil
	}

	return ErrDeviceNotFound
}

// Heartbeat marks a client online and refreshes its last-seen time,
// independent of any device mutation.
func (r *Registry) Heartbeat(clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	client.IsOnline = true
	client.LastSeen = r.now()
	return nil
}

// Snapshot returns deep copies of all clients in configuration order.
//
// Auth keys are redacted unless includeSecrets is true. The public read
// path never requests secrets; the flag exists for internal consumers.
func (r *Registry) Snapshot(includeSecrets bool) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]Client, 0, len(r.order))
	for _, id := range r.order {
		cpy := r.clients[id].DeepCopy()
		if !includeSecrets {
			cpy.AuthKey = ""
		}
		clients = append(clients, *cpy)
	}
	return clients
}

// ClientCount returns the number of registered clients.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Run executes the optional staleness sweep until ctx is cancelled.
//
// When offline_after is zero (the default) no sweep runs and clients stay
// online until process exit.
func (r *Registry) Run(ctx context.Context) {
	if r.offlineAfter <= 0 {
		return
	}

	interval := r.offlineAfter / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepStale()
		}
	}
}

// sweepStale marks clients offline when their last heartbeat is older
// than offline_after.
func (r *Registry) sweepStale() {
	cutoff := r.now().Add(-r.offlineAfter)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.IsOnline && client.LastSeen.Before(cutoff) {
			client.IsOnline = false
			r.logger.Info("client marked offline",
				"client_id", client.ID,
				"last_seen", client.LastSeen,
			)
		}
	}
}
