package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"race-simulator/internal/config"
	"race-simulator/internal/db"
	"race-simulator/internal/metrics"
	"race-simulator/internal/publisher"
	"race-simulator/internal/route"
	"race-simulator/internal/sim"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Resolve latest event database if EVENT is set; connect to the cluster's
	// meta DB first (usually 'postgres')
	var sqlDB *sql.DB
	{
		baseDSN := cfg.DatabaseURL
		finalDSN := baseDSN
		if cfg.Event != "" {
			rootDSN, err := db.WithDBName(baseDSN, "postgres")
			if err != nil {
				log.Fatalf("invalid base DSN: %v", err)
			}
			metaDB, err := db.Open(rootDSN)
			if err != nil {
				log.Fatalf("db open (meta) error: %v", err)
			}
			if err := db.Ping(ctx, metaDB); err != nil {
				log.Fatalf("db ping (meta) error: %v", err)
			}
			name, err := db.ResolveLatestRouteDB(ctx, metaDB, cfg.Event)
			metaDB.Close()
			if err != nil {
				log.Fatalf("resolve latest import for event %q: %v", cfg.Event, err)
			}
			finalDSN, err = db.WithDBName(baseDSN, name)
			if err != nil {
				log.Fatalf("compose DSN: %v", err)
			}
			log.Printf("Using database %q for event %q", name, cfg.Event)
		}
		sqlDB, err = db.Open(finalDSN)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
	}

	// Load the route and derive all geometry up front
	data, err := db.FetchRoute(ctx, sqlDB, cfg.RouteID)
	if err != nil {
		if ids, lerr := db.ListRouteIDs(ctx, sqlDB); lerr == nil {
			log.Printf("known routes: %v", ids)
		}
		log.Fatalf("fetch route %q: %v", cfg.RouteID, err)
	}
	model, err := route.New(data, cfg.StartCoord)
	if err != nil {
		log.Fatalf("build route model: %v", err)
	}
	if cfg.StartCoord != nil {
		log.Printf("restarting mid-route near (%.5f, %.5f): %d of %d vertices remain",
			cfg.StartCoord.Lat, cfg.StartCoord.Lon, model.Len(), len(data.Path))
	}

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrvCancel context.CancelFunc
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SpeedMps, cfg.SpeedMultiplier, cfg.TickInterval)
		mcol.SetRoute(model.Len(), model.LapLength(), model.TotalDistance())
		mctx, mcancel := context.WithCancel(ctx)
		metricsSrvCancel = mcancel
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-mctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Initialize NATS publisher
	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	// Run the simulation until the route is exhausted or we are signalled
	mgr := sim.NewManager(model, pub, cfg.RouteID,
		cfg.PublishInterval, cfg.TickInterval, cfg.TicksPerBatch,
		cfg.SpeedMps, cfg.SpeedMultiplier, cfg.Location, mcol)
	mgr.Start(ctx)

	<-ctx.Done()
	mgr.Stop()
	if metricsSrvCancel != nil {
		metricsSrvCancel()
	}
	log.Println("shutdown complete")
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
