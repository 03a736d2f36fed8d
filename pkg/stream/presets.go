package stream

import (
	"errors"

	"library-streaming-api/internal/models"
)

// ErrUnknownPreset rejects preset names outside the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named bundle of stream configurations started together.
type Preset map[string]models.StreamConfig

// presetCatalog holds the fixed teaching scenarios. Each entry lists full
// configs so clients can show exactly what a preset will start.
var presetCatalog = buildPresets()

func buildPresets() map[string]Preset {
	base := func(name string) models.StreamConfig {
		cfg := models.DefaultStreamConfig()
		cfg.StreamName = name
		return cfg
	}

	basic := base("books")

	fast := base("books")
	fast.Interval = 500
	fast.Duration = 60000

	throttle := base("books")
	throttle.Interval = 300
	throttle.Duration = 45000

	faulty := base("books")
	faulty.ErrorRate = 20
	faulty.Duration = 90000

	dupes := base("books")
	dupes.Interval = 2000
	dupes.Duration = 90000
	dupes.DuplicateRate = 30

	burst := base("books")
	burst.BurstMode = true
	burst.BurstSize = 5
	burst.BurstInterval = 8000

	jitter := base("books")
	jitter.Interval = 2000
	jitter.Duration = 90000
	jitter.DelayVariation = 2000

	multiBooks := base("books")
	multiIssues := base("issues")
	multiIssues.Interval = 4000

	return map[string]Preset{
		"basic":            {"books": basic},
		"fastEmission":     {"books": fast},
		"throttleDebounce": {"books": throttle},
		"errorHandling":    {"books": faulty},
		"duplicates":       {"books": dupes},
		"burstTraffic":     {"books": burst},
		"networkJitter":    {"books": jitter},
		"multiStream":      {"books": multiBooks, "issues": multiIssues},
	}
}

// Presets returns a copy of the preset catalog.
func Presets() map[string]Preset {
	out := make(map[string]Preset, len(presetCatalog))
	for name, p := range presetCatalog {
		cp := make(Preset, len(p))
		for stream, cfg := range p {
			cp[stream] = cfg
		}
		out[name] = cp
	}
	return out
}

// StartPreset starts every stream in the named preset and returns the
// configs it started. Streams already running under the same names are
// replaced, exactly as with individual starts.
func (r *Registry) StartPreset(name string) (Preset, error) {
	p, ok := presetCatalog[name]
	if !ok {
		return nil, ErrUnknownPreset
	}
	started := make(Preset, len(p))
	for stream, cfg := range p {
		if err := r.Start(cfg); err != nil {
			return nil, err
		}
		started[stream] = cfg
	}
	return started, nil
}
