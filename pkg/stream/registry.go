package stream

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"library-streaming-api/internal/models"
	"library-streaming-api/pkg/broadcast"
	"library-streaming-api/pkg/generator"
	"library-streaming-api/pkg/metrics"
)

// ErrMissingStreamName rejects start requests without a stream name.
var ErrMissingStreamName = errors.New("streamName is required")

// Registry owns the set of active streams, keyed by stream name. At most
// one scheduler runs per name: starting a name that is already running
// stops the old scheduler first, and completion removes the entry on its
// own. The registry mutex only guards the map; it is never held while
// waiting for a scheduler to exit.
type Registry struct {
	mu      sync.Mutex
	streams map[string]*activeStream

	hub *broadcast.Hub
	met *metrics.Metrics
	log *logrus.Entry

	randFn func() *rand.Rand
}

// NewRegistry returns an empty registry publishing to hub.
func NewRegistry(hub *broadcast.Hub, met *metrics.Metrics, log *logrus.Entry) *Registry {
	return &Registry{
		streams: make(map[string]*activeStream),
		hub:     hub,
		met:     met,
		log:     log,
		randFn: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// SetRandSource overrides the per-stream randomness factory. Streams are
// seeded from the wall clock by default; a fixed-seed factory makes the
// error, duplicate, and delay draws reproducible.
func (r *Registry) SetRandSource(fn func() *rand.Rand) {
	r.randFn = fn
}

// Start launches a stream under cfg.StreamName. A stream already running
// under that name is stopped first, through the same path as an explicit
// stop. Start returns once the scheduler is launched; it does not wait for
// an emission.
func (r *Registry) Start(cfg models.StreamConfig) error {
	if cfg.StreamName == "" {
		return ErrMissingStreamName
	}
	r.Stop(cfg.StreamName)

	s := r.newStream(cfg)
	r.mu.Lock()
	displaced := r.streams[cfg.StreamName]
	r.streams[cfg.StreamName] = s
	r.met.ActiveStreams.Set(float64(len(r.streams)))
	r.mu.Unlock()

	// A concurrent Start for the same name can slip in between the Stop
	// above and the install; the loser is halted before ours ticks.
	if displaced != nil {
		displaced.halt()
	}

	r.hub.Publish(models.EventStreamStarted, models.StreamStarted{
		StreamName: cfg.StreamName,
		Config:     cfg,
	})
	r.log.WithFields(logrus.Fields{
		"stream":   cfg.StreamName,
		"interval": cfg.Interval,
		"duration": cfg.Duration,
		"burst":    cfg.BurstMode,
	}).Info("stream started")

	go s.run()
	return nil
}

// Stop stops the named stream. The scheduler and all of its pending
// delayed work are cancelled and fully drained before the stream-stopped
// event goes out. Stopping an unknown name is a no-op; the return value
// reports whether a stream was actually stopped.
func (r *Registry) Stop(name string) bool {
	r.mu.Lock()
	s, ok := r.streams[name]
	if ok {
		delete(r.streams, name)
		r.met.ActiveStreams.Set(float64(len(r.streams)))
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	s.halt()
	r.hub.Publish(models.EventStreamStopped, models.StreamStopped{StreamName: name})
	r.log.WithField("stream", name).Info("stream stopped")
	return true
}

// StopAll stops every active stream and returns how many were stopped.
func (r *Registry) StopAll() int {
	r.mu.Lock()
	names := make([]string, 0, len(r.streams))
	for name := range r.streams {
		names = append(names, name)
	}
	r.mu.Unlock()

	stopped := 0
	for _, name := range names {
		if r.Stop(name) {
			stopped++
		}
	}
	return stopped
}

// Configs returns a snapshot of the configs of all active streams.
func (r *Registry) Configs() map[string]models.StreamConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]models.StreamConfig, len(r.streams))
	for name, s := range r.streams {
		out[name] = s.cfg
	}
	return out
}

// Count returns the number of active streams.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

// removeIfCurrent drops s from the registry if it is still the installed
// stream for its name. Completion calls this from the scheduler goroutine;
// the pointer check keeps it from evicting a replacement that raced in.
func (r *Registry) removeIfCurrent(s *activeStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.streams[s.name] == s {
		delete(r.streams, s.name)
		r.met.ActiveStreams.Set(float64(len(r.streams)))
	}
}

func (r *Registry) newStream(cfg models.StreamConfig) *activeStream {
	ctx, cancel := context.WithCancel(context.Background())
	rng := r.randFn()
	return &activeStream{
		name:      cfg.StreamName,
		cfg:       cfg,
		start:     time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		rng:       rng,
		gen:       generator.ForStream(cfg.StreamName, rng),
		reg:       r,
		hub:       r.hub,
		met:       r.met,
		log:       r.log,
		attemptCh: make(chan struct{}, 16),
		deliverCh: make(chan any, 16),
	}
}
