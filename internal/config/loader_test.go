package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/freeeve/pgnbook/internal/config"
)

var configEnvVars = []string{
	"PGNBOOK_CONFIG",
	"PGNBOOK_MAX_DEPTH",
	"PGNBOOK_ME",
	"PGNBOOK_PLAYS_WEIGHT",
	"PGNBOOK_WORKERS",
	"PGNBOOK_LOG_LEVEL",
	"PGNBOOK_MAX_LINE_SIZE",
	"PGNBOOK_SNAPSHOT",
	"PGNBOOK_METRICS_FILE",
	"PGNBOOK_ECO_DIR",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "pgnbook.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the book defaults", func() {
			convey.So(cfg.MaxDepth, convey.ShouldEqual, 20)
			convey.So(cfg.PlaysWeight, convey.ShouldEqual, 50)
			convey.So(cfg.Workers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Me, convey.ShouldBeEmpty)
			convey.So(cfg.Snapshot, convey.ShouldEqual, "book.pgb")
			convey.So(cfg.Validate(), convey.ShouldBeNil)

			size, err := cfg.LineSize()
			convey.So(err, convey.ShouldBeNil)
			convey.So(size, convey.ShouldEqual, 1<<20)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"negative depth", func(c *config.Config) { c.MaxDepth = -1 }},
			{"plays weight above 100", func(c *config.Config) { c.PlaysWeight = 101 }},
			{"negative plays weight", func(c *config.Config) { c.PlaysWeight = -1 }},
			{"zero workers", func(c *config.Config) { c.Workers = 0 }},
			{"empty snapshot", func(c *config.Config) { c.Snapshot = "" }},
			{"unparsable line size", func(c *config.Config) { c.MaxLineSize = "lots" }},
		}
		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.MaxDepth, convey.ShouldEqual, 20)
			convey.So(cfg.Workers, convey.ShouldEqual, runtime.NumCPU())
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("PGNBOOK_MAX_DEPTH", "8")
			_ = os.Setenv("PGNBOOK_ME", "magnus")
			_ = os.Setenv("PGNBOOK_WORKERS", "3")
			_ = os.Setenv("PGNBOOK_MAX_LINE_SIZE", "64KB")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.MaxDepth, convey.ShouldEqual, 8)
			convey.So(cfg.Me, convey.ShouldEqual, "magnus")
			convey.So(cfg.Workers, convey.ShouldEqual, 3)
			size, err := cfg.LineSize()
			convey.So(err, convey.ShouldBeNil)
			convey.So(size, convey.ShouldEqual, 64<<10)
		})

		convey.Convey("When loading with a YAML file and env overrides", func() {
			path := writeConfigFile(t, `
max_depth: 12
plays_weight: 80
snapshot: /tmp/openings.pgb
metrics_file: /tmp/pgnbook.prom
`)
			_ = os.Setenv("PGNBOOK_CONFIG", path)
			_ = os.Setenv("PGNBOOK_PLAYS_WEIGHT", "10")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.MaxDepth, convey.ShouldEqual, 12)    // from file
			convey.So(cfg.PlaysWeight, convey.ShouldEqual, 10) // env wins
			convey.So(cfg.Snapshot, convey.ShouldEqual, "/tmp/openings.pgb")
			convey.So(cfg.MetricsFile, convey.ShouldEqual, "/tmp/pgnbook.prom")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info") // default
		})

		convey.Convey("When the YAML file is invalid", func() {
			_ = os.Setenv("PGNBOOK_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("PGNBOOK_CONFIG", "/non/existent/pgnbook.yaml")

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a loaded value is out of range", func() {
			_ = os.Setenv("PGNBOOK_PLAYS_WEIGHT", "250")

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := config.Load(cctx)

			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
		})
	})
}
