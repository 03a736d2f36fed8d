package stream

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"library-streaming-api/internal/models"
	"library-streaming-api/pkg/broadcast"
	"library-streaming-api/pkg/generator"
	"library-streaming-api/pkg/metrics"
)

// burstStagger is the fixed offset between emission attempts within one
// burst.
const burstStagger = 100 * time.Millisecond

// activeStream is one running stream: the immutable config snapshot plus
// the mutable emission state. Everything mutable (count, last payload, rng
// draws) is owned by the run goroutine; the registry only holds the handle
// used to cancel and await it.
type activeStream struct {
	name  string
	cfg   models.StreamConfig
	start time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	rng *rand.Rand
	gen generator.Generator

	reg *Registry
	hub *broadcast.Hub
	met *metrics.Metrics
	log *logrus.Entry

	count int64 // emissions so far; frozen once the stream ends
	last  any   // previous fresh payload, replayed on duplicate ticks

	attemptCh chan struct{} // staggered burst attempts due
	deliverCh chan any      // delayed fresh emissions ready to broadcast
}

// run is the scheduler loop. Normal mode fires its first emission attempt
// immediately and then once per interval; burst mode waits out one
// burstInterval and then fires burstSize staggered attempts per period.
// Delayed emissions and staggered attempts are routed back into this loop
// so every piece of stream state has a single writer.
func (s *activeStream) run() {
	defer close(s.done)
	defer s.cancel()

	if s.ctx.Err() != nil {
		// Halted before the first tick (displaced by a racing start).
		return
	}

	period := s.cfg.Interval
	if s.cfg.BurstMode {
		period = s.cfg.BurstInterval
	}
	ticker := time.NewTicker(time.Duration(period) * time.Millisecond)
	defer ticker.Stop()

	if s.cfg.BurstMode {
		// Burst mode holds its first burst for one interval, but an
		// already expired duration still settles up front.
		if elapsed := time.Since(s.start); elapsed >= time.Duration(s.cfg.Duration)*time.Millisecond {
			s.complete(elapsed)
			return
		}
	} else if s.attempt() {
		return
	}
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.cfg.BurstMode {
				if s.fireBurst() {
					return
				}
			} else if s.attempt() {
				return
			}
		case <-s.attemptCh:
			if s.attempt() {
				return
			}
		case payload := <-s.deliverCh:
			s.emit(payload, false)
		}
	}
}

// attempt runs one tick. The checks apply in strict order and exactly one
// branch takes effect: duration completion, injected error, duplicate
// replay, or a fresh emission. Reports whether the stream completed.
func (s *activeStream) attempt() bool {
	elapsed := time.Since(s.start)
	if elapsed >= time.Duration(s.cfg.Duration)*time.Millisecond {
		s.complete(elapsed)
		return true
	}
	if s.rng.Float64()*100 < s.cfg.ErrorRate {
		s.injectError()
		return false
	}
	if s.rng.Float64()*100 < s.cfg.DuplicateRate && s.last != nil {
		s.emit(s.last, true)
		return false
	}
	payload := s.gen.Generate(s.count)
	s.last = payload
	if s.cfg.DelayVariation > 0 {
		s.deferEmit(payload)
		return false
	}
	s.emit(payload, false)
	return false
}

// emit broadcasts a payload on the stream's own channel and counts it.
// Duplicate replays go out unchanged.
func (s *activeStream) emit(payload any, duplicate bool) {
	s.hub.Publish(s.name, payload)
	s.count++
	s.met.EmissionsTotal.WithLabelValues(s.name).Inc()
	if duplicate {
		s.met.DuplicateEmissions.WithLabelValues(s.name).Inc()
	}
}

// injectError broadcasts a simulated fault on the stream's error channel.
// The emission count and the duplicate source stay untouched and the
// scheduler keeps running.
func (s *activeStream) injectError() {
	s.hub.Publish(models.ErrorEvent(s.name), models.StreamError{
		Error:     true,
		Message:   fmt.Sprintf("Simulated error in %s stream", s.name),
		Timestamp: time.Now().UTC(),
	})
	s.met.InjectedErrors.WithLabelValues(s.name).Inc()
}

// deferEmit broadcasts the payload after a one-shot uniform delay in
// [0, delayVariation) ms. The payload is already stored as the duplicate
// source; only the broadcast and the count wait for the delay. Stopping
// the stream cancels the pending delivery.
func (s *activeStream) deferEmit(payload any) {
	delay := time.Duration(s.rng.Int63n(s.cfg.DelayVariation)) * time.Millisecond
	go func() {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-s.ctx.Done():
		case <-t.C:
			select {
			case s.deliverCh <- payload:
			case <-s.ctx.Done():
			}
		}
	}()
}

// fireBurst runs the first attempt of a burst immediately and staggers the
// rest burstStagger apart. Pending attempts die with the stream context.
func (s *activeStream) fireBurst() bool {
	if s.attempt() {
		return true
	}
	for i := 1; i < s.cfg.BurstSize; i++ {
		s.scheduleAttempt(time.Duration(i) * burstStagger)
	}
	return false
}

func (s *activeStream) scheduleAttempt(after time.Duration) {
	go func() {
		t := time.NewTimer(after)
		defer t.Stop()
		select {
		case <-s.ctx.Done():
		case <-t.C:
			select {
			case s.attemptCh <- struct{}{}:
			case <-s.ctx.Done():
			}
		}
	}()
}

// complete ends the stream after its duration elapsed: broadcast the
// completion report and drop the registry entry. Completion does not emit
// stream-stopped; that event belongs to explicit stops.
func (s *activeStream) complete(elapsed time.Duration) {
	s.hub.Publish(models.CompleteEvent(s.name), models.StreamComplete{
		StreamName:     s.name,
		TotalEmissions: s.count,
		Duration:       elapsed.Milliseconds(),
	})
	s.met.StreamCompletions.WithLabelValues(s.name).Inc()
	s.log.WithFields(logrus.Fields{
		"stream":    s.name,
		"emissions": s.count,
		"elapsed":   elapsed.Milliseconds(),
	}).Info("stream completed")
	s.reg.removeIfCurrent(s)
}

// halt cancels the scheduler and waits for it to exit. Once halt returns,
// no further event from this stream lineage can be broadcast.
func (s *activeStream) halt() {
	s.cancel()
	<-s.done
}
