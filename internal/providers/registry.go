package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/vidplan-labs/vidplan-core/internal/bus"
	"github.com/vidplan-labs/vidplan-core/internal/protocol"
)

// staleAfter is how long a provider may go without a status report before it
// is considered unhealthy.
const staleAfter = 30 * time.Second

// Info is the tracked state of one upstream generation provider.
type Info struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Healthy  bool      `json:"healthy"`
	Detail   string    `json:"detail,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

// Registry tracks the health of upstream providers. Services report status
// after each call; reports also flow over the bus so every process sees the
// same picture.
type Registry struct {
	log    *slog.Logger
	bus    *bus.Client
	cancel context.CancelFunc

	mu        sync.RWMutex
	providers map[string]*Info

	subs       []*nats.Subscription
	meter      metric.Meter
	knownGauge metric.Int64ObservableGauge
	upGauge    metric.Int64ObservableGauge
}

func NewRegistry(ctx context.Context, busClient *bus.Client, log *slog.Logger) (*Registry, error) {
	ctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		log:       log.With(slog.String("component", "provider-registry")),
		bus:       busClient,
		providers: make(map[string]*Info),
		meter:     otel.Meter("github.com/vidplan-labs/vidplan-core/runtime"),
		cancel:    cancel,
	}

	if err := r.initMetrics(); err != nil {
		r.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}

	if r.bus != nil {
		sub, err := r.bus.Conn().Subscribe(protocol.SubjectProviderStatus, r.handleStatus)
		if err != nil {
			r.cancel()
			return nil, fmt.Errorf("subscribe provider status: %w", err)
		}
		r.subs = append(r.subs, sub)
	}

	go r.monitorStaleness(ctx)
	return r, nil
}

func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	for _, sub := range r.subs {
		_ = sub.Drain()
	}
}

// Report records a provider status locally and broadcasts it.
func (r *Registry) Report(status protocol.ProviderStatus) {
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}
	r.update(status)

	if r.bus == nil {
		return
	}
	if err := r.bus.PublishJSON(protocol.SubjectProviderStatus, status); err != nil {
		r.log.Warn("failed to publish provider status",
			slog.String("provider", status.Name),
			slog.String("error", err.Error()))
	}
}

func (r *Registry) handleStatus(msg *nats.Msg) {
	var status protocol.ProviderStatus
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		r.log.Warn("invalid provider status message", slog.String("error", err.Error()))
		return
	}
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}
	r.update(status)
}

func (r *Registry) update(status protocol.ProviderStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.providers[status.Name]
	if !ok {
		info = &Info{Name: status.Name}
		r.providers[status.Name] = info
	}
	if status.Kind != "" {
		info.Kind = status.Kind
	}
	info.Healthy = status.Healthy
	info.Detail = status.Detail
	info.LastSeen = status.Timestamp
}

func (r *Registry) monitorStaleness(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.expireStale()
		}
	}
}

func (r *Registry) expireStale() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, info := range r.providers {
		if info.Healthy && now.Sub(info.LastSeen) > staleAfter {
			info.Healthy = false
			info.Detail = "no status report"
		}
	}
}

// Healthy reports whether a named provider is currently healthy.
func (r *Registry) Healthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.providers[name]
	return ok && info.Healthy
}

// Snapshot returns all tracked providers sorted by name.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.providers))
	for _, info := range r.providers {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) initMetrics() error {
	if r.meter == nil {
		return nil
	}
	known, err := r.meter.Int64ObservableGauge("vidplan.providers.known",
		metric.WithDescription("Number of tracked upstream providers"))
	if err != nil {
		return err
	}
	up, err := r.meter.Int64ObservableGauge("vidplan.providers.healthy",
		metric.WithDescription("Number of healthy upstream providers"))
	if err != nil {
		return err
	}
	r.knownGauge = known
	r.upGauge = up
	_, err = r.meter.RegisterCallback(func(ctx context.Context, obs metric.Observer) error {
		total, healthy := r.snapshotCounts()
		obs.ObserveInt64(known, total)
		obs.ObserveInt64(up, healthy)
		return nil
	}, known, up)
	return err
}

func (r *Registry) snapshotCounts() (int64, int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total, healthy int64
	for _, info := range r.providers {
		total++
		if info.Healthy {
			healthy++
		}
	}
	return total, healthy
}
