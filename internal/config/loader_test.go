package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/basestats/stats-engine/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 8080)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.BatchWriteLimit, convey.ShouldEqual, 500)
				convey.So(cfg.RankingTopN, convey.ShouldEqual, 10)
				convey.So(cfg.NeighborRadius, convey.ShouldEqual, 2)
				convey.So(cfg.FlushInterval, convey.ShouldEqual, time.Second)
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("STATS_PORT", "9090")
			_ = os.Setenv("STATS_QUEUE_SIZE", "50")
			_ = os.Setenv("STATS_FLUSH_INTERVAL", "250ms")
			_ = os.Setenv("STATS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
			_ = os.Setenv("STATS_TRACE_STDOUT", "true")

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 9090)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 50)
				convey.So(cfg.FlushInterval, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
				convey.So(cfg.TraceStdout, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a YAML file and env vars are both present", func() {
			path := writeConfigFile(t, `
port: 7000
worker_count: 3
ranking_top_n: 5
rollup_interval: 1m
`)
			_ = os.Setenv("STATS_CONFIG", path)
			_ = os.Setenv("STATS_WORKER_COUNT", "12")

			cfg, err := config.Load()

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 7000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 12)
				convey.So(cfg.RankingTopN, convey.ShouldEqual, 5)
				convey.So(cfg.RollupInterval, convey.ShouldEqual, time.Minute)
			})
		})

		convey.Convey("When the postgres driver has no URL", func() {
			_ = os.Setenv("STATS_STORE_DRIVER", "postgres")

			_, err := config.Load()

			convey.Convey("Then loading fails validation", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "postgres_url")
			})
		})

		convey.Convey("When the batch limit exceeds the store maximum", func() {
			_ = os.Setenv("STATS_BATCH_WRITE_LIMIT", "501")

			_, err := config.Load()

			convey.Convey("Then loading fails validation", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("STATS_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

			_, err := config.Load()

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}
