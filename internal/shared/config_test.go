package shared

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DB_WAIT_TIMEOUT_MS", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("CORS_HEADERS", "")
	c := Load()
	if c.HTTPAddr != ":3000" || c.StoreDriver != "mongo" || c.MongoDatabase != "SmartStayX" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.DBWaitTimeout != 5*time.Second || c.DBPingInterval != 500*time.Millisecond || c.DBBudget != 10*time.Second {
		t.Fatalf("unexpected db timings: %v %v %v", c.DBWaitTimeout, c.DBPingInterval, c.DBBudget)
	}
	if len(c.CORSOrigins) != 1 || c.CORSOrigins[0] != "http://localhost:5173" || len(c.CORSHeaders) != 2 {
		t.Fatalf("cors defaults: %v %v", c.CORSOrigins, c.CORSHeaders)
	}
	if c.CacheTTL != time.Minute {
		t.Fatalf("cache ttl: %v", c.CacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("DB_WAIT_TIMEOUT_MS", "250")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BACKFILL_WORKERS", "oops")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	c := Load()
	if c.StoreDriver != "mysql" || c.DBWaitTimeout != 250*time.Millisecond || c.RedisDB != 3 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %q", c.CORSOrigins)
	}
	// unparsable numbers fall back to the default
	if c.BackfillWorker != 8 {
		t.Fatalf("BackfillWorker = %d", c.BackfillWorker)
	}
}
