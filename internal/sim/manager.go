package sim

import (
	"context"
	"log"
	"sync"
	"time"

	mmetrics "race-simulator/internal/metrics"
	"race-simulator/internal/publisher"
	"race-simulator/internal/route"
)

// Publisher is the outbound side of the simulation; satisfied by
// publisher.NATSPublisher.
type Publisher interface {
	PublishPosition(routeID string, msg publisher.PositionMessage) error
}

// Manager drives one vehicle along one route. Each wall-clock publish
// interval it simulates a batch of ticks: distance increments are fed
// into the model's index sweep, the resulting vertex is used to gather
// gradient, time zone, coordinate and heading, and a position message
// goes out. The sweep carries its state across batches, so a whole run
// stays amortized linear in ticks plus vertices.
type Manager struct {
	model           *route.Model
	pub             Publisher
	routeID         string
	publishInterval time.Duration
	tickInterval    time.Duration
	ticksPerBatch   int
	speedMps        float64
	speedMultiplier float64
	tz              *time.Location
	metrics         *mmetrics.Collector

	cancel context.CancelFunc
	wg     sync.WaitGroup

	sweep     *route.Sweep
	tick      int64
	travelled float64
}

func NewManager(model *route.Model, pub Publisher, routeID string, publishInterval, tickInterval time.Duration, ticksPerBatch int, speedMps, speedMultiplier float64, tz *time.Location, metrics *mmetrics.Collector) *Manager {
	if ticksPerBatch < 1 {
		ticksPerBatch = 1
	}
	if tz == nil {
		tz = time.Local
	}
	return &Manager{
		model:           model,
		pub:             pub,
		routeID:         routeID,
		publishInterval: publishInterval,
		tickInterval:    tickInterval,
		ticksPerBatch:   ticksPerBatch,
		speedMps:        speedMps,
		speedMultiplier: speedMultiplier,
		tz:              tz,
		metrics:         metrics,
		sweep:           model.NewSweep(),
	}
}

// Start launches the simulation loop in a goroutine; Stop cancels it
// and waits.
func (m *Manager) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.run(ctx); err != nil && err != context.Canceled {
			log.Printf("simulation error: %v", err)
		}
	}()
}

func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) error {
	log.Printf("starting route %s: %d vertices, lap %.1fm, total %.1fm",
		m.routeID, m.model.Len(), m.model.LapLength(), m.model.TotalDistance())

	tick := time.NewTicker(m.publishInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick.C:
			finished, err := m.step(now)
			if err != nil {
				log.Printf("publish error for %s: %v", m.routeID, err)
			}
			if finished {
				log.Printf("finished route %s after %d ticks (%.1fm)", m.routeID, m.tick, m.travelled)
				return nil
			}
		}
	}
}

// step simulates one batch of ticks and publishes the resulting
// position. It reports whether the route is exhausted.
func (m *Manager) step(now time.Time) (bool, error) {
	batchStart := time.Now()

	increments := m.buildIncrements()
	indices := m.sweep.Map(increments)
	for _, d := range increments {
		m.travelled += d
	}
	m.tick += int64(len(increments))

	last := indices[len(indices)-1]
	gradients := m.model.GradientsAt(indices)
	timeZones := m.model.TimeZonesAt(indices)
	coords := m.model.CoordinatesAt(indices)

	pos := coords[len(coords)-1]
	progress := 1.0
	if total := m.model.TotalDistance(); total > 0 && m.travelled < total {
		progress = m.travelled / total
	}
	lap := 0.0
	if m.model.LapLength() > 0 {
		lap = m.travelled / m.model.LapLength()
	}

	if m.metrics != nil {
		m.metrics.TicksSimulated.Add(float64(len(increments)))
		m.metrics.BatchesMapped.Inc()
		m.metrics.PathIndex.Set(float64(last))
		m.metrics.DistanceTravelled.Set(m.travelled)
		m.metrics.LapsCompleted.Set(lap)
		m.metrics.Progress.Set(progress)
		m.metrics.BatchDuration.Observe(time.Since(batchStart).Seconds())
	}

	msg := publisher.PositionMessage{
		RouteID:     m.routeID,
		Tick:        m.tick,
		Timestamp:   now.In(m.tz),
		Lat:         pos.Lat,
		Lon:         pos.Lon,
		Bearing:     m.model.HeadingAt(last),
		Gradient:    gradients[len(gradients)-1],
		TZOffsetSec: timeZones[len(timeZones)-1],
		PathIndex:   last,
		DistanceM:   m.travelled,
		Lap:         lap,
		Progress:    progress,
		SpeedMps:    m.currentSpeed(),
	}
	err := m.pub.PublishPosition(m.routeID, msg)

	finished := m.sweep.Done() && m.travelled >= m.model.TotalDistance()
	return finished, err
}

// buildIncrements produces the per-tick distance increments for one
// batch. Increments are non-negative, which is what keeps the sweep's
// unchecked monotonicity precondition satisfied.
func (m *Manager) buildIncrements() []float64 {
	d := m.currentSpeed() * m.tickInterval.Seconds()
	increments := make([]float64, m.ticksPerBatch)
	for i := range increments {
		increments[i] = d
	}
	return increments
}

// currentSpeed derates the nominal speed on climbs: a 5% grade costs
// roughly a third of the flat-ground pace, floored at half. Descents do
// not speed the car up; race regulations cap it either way.
//
// The relevant grade is the segment the car is entering. The gradient
// table pairs entry i with the segment arriving at vertex i, so the
// climb out of vertex i lives at entry i+1, clamped at the final
// vertex where no segment remains.
func (m *Manager) currentSpeed() float64 {
	speed := m.speedMps * m.speedMultiplier
	ahead := m.sweep.Index() + 1
	if ahead >= m.model.Len() {
		ahead = m.model.Len() - 1
	}
	g := m.model.Gradients()[ahead]
	if g > 0 {
		factor := 1 - 6.5*g
		if factor < 0.5 {
			factor = 0.5
		}
		speed *= factor
	}
	return speed
}

// Tick returns the number of ticks simulated so far.
func (m *Manager) Tick() int64 { return m.tick }

// Travelled returns cumulative distance in meters since route start.
func (m *Manager) Travelled() float64 { return m.travelled }
