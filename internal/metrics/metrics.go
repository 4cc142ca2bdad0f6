package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	TicksSimulated prometheus.Counter
	BatchesMapped  prometheus.Counter

	PathIndex         prometheus.Gauge
	DistanceTravelled prometheus.Gauge
	LapsCompleted     prometheus.Gauge
	Progress          prometheus.Gauge

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	BatchDuration   prometheus.Histogram
	PublishDuration prometheus.Histogram

	RouteVertices   prometheus.Gauge
	LapLengthMeters prometheus.Gauge
	TotalMeters     prometheus.Gauge
	SpeedMps        prometheus.Gauge
	SpeedMultiplier prometheus.Gauge
	TickSeconds     prometheus.Gauge
}

func NewCollector(speedMps, speedMultiplier float64, tickInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TicksSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racesim_ticks_simulated_total",
			Help: "Total simulation ticks processed.",
		}),
		BatchesMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racesim_batches_mapped_total",
			Help: "Total tick batches mapped to route indices.",
		}),
		PathIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_path_index",
			Help: "Current route vertex index of the vehicle.",
		}),
		DistanceTravelled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_distance_travelled_meters",
			Help: "Cumulative distance travelled since route start.",
		}),
		LapsCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_laps_completed",
			Help: "Distance travelled divided by lap length.",
		}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_route_progress",
			Help: "Fraction of the route completed, 0..1.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racesim_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racesim_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "racesim_batch_duration_seconds",
			Help:    "Duration of one tick-batch computation (mapping and gathers).",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "racesim_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RouteVertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_route_vertices",
			Help: "Number of vertices on the (possibly truncated) route.",
		}),
		LapLengthMeters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_lap_length_meters",
			Help: "Length of one repeating lap.",
		}),
		TotalMeters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_route_total_meters",
			Help: "Travel distance from route start to final vertex.",
		}),
		SpeedMps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_speed_mps",
			Help: "Nominal vehicle speed in meters per second.",
		}),
		SpeedMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_speed_multiplier",
			Help: "Current speed multiplier.",
		}),
		TickSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racesim_tick_seconds",
			Help: "Simulated seconds represented by one tick.",
		}),
	}

	// Register
	reg.MustRegister(
		c.TicksSimulated, c.BatchesMapped,
		c.PathIndex, c.DistanceTravelled, c.LapsCompleted, c.Progress,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.BatchDuration, c.PublishDuration,
		c.RouteVertices, c.LapLengthMeters, c.TotalMeters,
		c.SpeedMps, c.SpeedMultiplier, c.TickSeconds,
	)

	c.SpeedMps.Set(speedMps)
	c.SpeedMultiplier.Set(speedMultiplier)
	c.TickSeconds.Set(tickInterval.Seconds())

	return c
}

// SetRoute records the static geometry gauges once the model is built.
func (c *Collector) SetRoute(vertices int, lapLength, total float64) {
	c.RouteVertices.Set(float64(vertices))
	c.LapLengthMeters.Set(lapLength)
	c.TotalMeters.Set(total)
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	log.Printf("starting metrics server on %s", addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	return srv
}
