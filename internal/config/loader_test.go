package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/kickoff/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MaxRosterSize, convey.ShouldEqual, 64)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KICKOFF_ADDR", ":8080")
			_ = os.Setenv("KICKOFF_MAX_ROSTER_SIZE", "22")
			_ = os.Setenv("KICKOFF_PREFER_RANDOM_TIES", "false")
			_ = os.Setenv("KICKOFF_DEFAULT_TEAM_A_NAME", "Bibs")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxRosterSize, convey.ShouldEqual, 22)
				convey.So(cfg.PreferRandomTies, convey.ShouldBeFalse)
				convey.So(cfg.DefaultTeamAName, convey.ShouldEqual, "Bibs")
				convey.So(cfg.DefaultTeamBName, convey.ShouldEqual, "Team B")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_format: json
store_backend: redis
redis_url: "redis://cache:6379/2"
redis_key_prefix: "test:"
notify_worker_count: 3
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KICKOFF_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreRedis)
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://cache:6379/2")
				convey.So(cfg.RedisKeyPrefix, convey.ShouldEqual, "test:")
				convey.So(cfg.NotifyWorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.MaxRosterSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
max_roster_size: 30
notify_queue_size: 50
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KICKOFF_CONFIG", tmpFile)
			_ = os.Setenv("KICKOFF_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxRosterSize, convey.ShouldEqual, 30)
				convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KICKOFF_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("KICKOFF_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("KICKOFF_STORE_BACKEND", "etcd")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "etcd")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"KICKOFF_CONFIG",
		"KICKOFF_ADDR",
		"KICKOFF_MAX_ROSTER_SIZE",
		"KICKOFF_PREFER_RANDOM_TIES",
		"KICKOFF_DEFAULT_TEAM_A_NAME",
		"KICKOFF_STORE_BACKEND",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "kickoff-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
