package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"race-simulator/internal/route"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	Event           string
	RouteID         string
	NATSURL         string
	PublishInterval time.Duration
	TickInterval    time.Duration
	TicksPerBatch   int
	SpeedMps        float64
	SpeedMultiplier float64
	StartCoord      *route.Coordinate
	Location        *time.Location
	LogNATSSubjects bool
	MetricsAddr     string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Database URL (cluster DSN): prefer DATABASE_URL / PG_DSN, else build from PG* vars
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		db := os.Getenv("PGDATABASE")
		// If EVENT is provided, default base DB to 'postgres' when PGDATABASE is not set.
		if db == "" && os.Getenv("EVENT") != "" {
			db = "postgres"
		}
		if db == "" {
			return nil, errors.New("PGDATABASE or DATABASE_URL must be set (set PGDATABASE=postgres when using EVENT)")
		}
		sslmode := getenvDefault("PGSSLMODE", "disable")
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	} else {
		cfg.DatabaseURL = dsn
	}

	// Racing event name for dynamic DB resolution
	cfg.Event = firstNonEmpty(os.Getenv("EVENT"), os.Getenv("EVENT_NAME"))

	cfg.RouteID = os.Getenv("ROUTE_ID")
	if cfg.RouteID == "" {
		return nil, errors.New("ROUTE_ID must be set")
	}

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")

	// Publish interval (wall clock between position messages)
	if v := os.Getenv("PUBLISH_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid PUBLISH_INTERVAL_MS: %q", v)
		}
		cfg.PublishInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.PublishInterval = time.Second
	}

	// Simulated time represented by one tick
	if v := os.Getenv("TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid TICK_MS: %q", v)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.TickInterval = time.Second
	}

	// Ticks simulated per publish interval
	if v := os.Getenv("TICKS_PER_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid TICKS_PER_BATCH: %q", v)
		}
		cfg.TicksPerBatch = n
	} else {
		cfg.TicksPerBatch = 1
	}

	// Nominal vehicle speed
	if v := os.Getenv("SPEED_MPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid SPEED_MPS: %q", v)
		}
		cfg.SpeedMps = f
	} else {
		cfg.SpeedMps = 20.0
	}

	// Speed multiplier
	if v := os.Getenv("SPEED_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid SPEED_MULTIPLIER: %q", v)
		}
		cfg.SpeedMultiplier = f
	} else {
		cfg.SpeedMultiplier = 1.0
	}

	// Optional restart position; both or neither must be set
	latS, lonS := os.Getenv("START_LAT"), os.Getenv("START_LON")
	if (latS == "") != (lonS == "") {
		return nil, errors.New("START_LAT and START_LON must be set together")
	}
	if latS != "" {
		lat, err := strconv.ParseFloat(latS, 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid START_LAT: %q", latS)
		}
		lon, err := strconv.ParseFloat(lonS, 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid START_LON: %q", lonS)
		}
		cfg.StartCoord = &route.Coordinate{Lat: lat, Lon: lon}
	}

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			cfg.LogNATSSubjects = true
		default:
			cfg.LogNATSSubjects = false
		}
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	// Time zone
	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
