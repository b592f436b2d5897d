package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/datar-psa/summeval/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summeval.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUMMEVAL_CONFIG", "")

	convey.Convey("Given no file and no environment", t, func() {
		cfg, err := config.Load(context.Background(), "")

		convey.Convey("Then the defaults are returned", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Rouge.UseStemmer, convey.ShouldBeTrue)
			convey.So(cfg.Rouge.Stemmer, convey.ShouldEqual, "porter")
			convey.So(cfg.Rouge.Lemmatize, convey.ShouldBeFalse)
			convey.So(cfg.Bleu.MaxN, convey.ShouldEqual, 4)
			convey.So(cfg.Bleu.Smoothing, convey.ShouldEqual, "method4")
			convey.So(cfg.BERT.Lang, convey.ShouldEqual, "en")
			convey.So(cfg.BERT.Window, convey.ShouldEqual, 2)
			convey.So(cfg.BERT.BatchSize, convey.ShouldEqual, 64)
			convey.So(cfg.Embedding.Backend, convey.ShouldEqual, config.BackendOllama)
			convey.So(cfg.Embedding.OllamaHost, convey.ShouldEqual, "http://localhost:11434")
		})
	})
}

func TestLoad_File(t *testing.T) {
	t.Setenv("SUMMEVAL_CONFIG", "")

	convey.Convey("Given a YAML config file", t, func() {
		path := writeConfig(t, `
addr: ":9090"
log_format: json
rouge:
  use_stemmer: false
bleu:
  smoothing: add-one
embedding:
  backend: gemini
  project: my-project
  model: gemini-embedding-001
`)

		cfg, err := config.Load(context.Background(), path)

		convey.Convey("Then file values override defaults and untouched keys keep them", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.Rouge.UseStemmer, convey.ShouldBeFalse)
			convey.So(cfg.Bleu.Smoothing, convey.ShouldEqual, "add-one")
			convey.So(cfg.Bleu.MaxN, convey.ShouldEqual, 4)
			convey.So(cfg.Embedding.Backend, convey.ShouldEqual, config.BackendGemini)
			convey.So(cfg.Embedding.Project, convey.ShouldEqual, "my-project")
			convey.So(cfg.Embedding.Location, convey.ShouldEqual, "us-central1")
		})
	})
}

func TestLoad_FileFromEnv(t *testing.T) {
	path := writeConfig(t, "addr: \":7070\"\n")
	t.Setenv("SUMMEVAL_CONFIG", path)

	convey.Convey("Given SUMMEVAL_CONFIG naming a file", t, func() {
		cfg, err := config.Load(context.Background(), "")

		convey.Convey("Then that file is loaded", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
		})
	})
}

func TestLoad_Env(t *testing.T) {
	path := writeConfig(t, "addr: \":9090\"\nbleu:\n  max_n: 3\n")
	t.Setenv("SUMMEVAL_CONFIG", "")
	t.Setenv("SUMMEVAL_ADDR", ":6060")
	t.Setenv("SUMMEVAL_LOG_LEVEL", "debug")
	t.Setenv("SUMMEVAL_BLEU__MAX_N", "2")
	t.Setenv("SUMMEVAL_ROUGE__USE_STEMMER", "false")
	t.Setenv("SUMMEVAL_EMBEDDING__MODEL", "all-minilm")
	t.Setenv("SUMMEVAL_BERT__BATCH_SIZE", "16")

	convey.Convey("Given a file and environment variables", t, func() {
		cfg, err := config.Load(context.Background(), path)

		convey.Convey("Then the environment wins", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			convey.So(cfg.Bleu.MaxN, convey.ShouldEqual, 2)
			convey.So(cfg.Rouge.UseStemmer, convey.ShouldBeFalse)
			convey.So(cfg.Embedding.Model, convey.ShouldEqual, "all-minilm")
			convey.So(cfg.BERT.BatchSize, convey.ShouldEqual, 16)
		})
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("SUMMEVAL_CONFIG", "")

	convey.Convey("Given invalid configuration", t, func() {
		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the smoothing method is unknown", func() {
			path := writeConfig(t, "bleu:\n  smoothing: method7\n")
			_, err := config.Load(context.Background(), path)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the gemini backend has no credentials", func() {
			path := writeConfig(t, "embedding:\n  backend: gemini\n")
			_, err := config.Load(context.Background(), path)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the backend is unknown", func() {
			path := writeConfig(t, "embedding:\n  backend: openai\n")
			_, err := config.Load(context.Background(), path)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given the defaults", t, func() {
		cfg := config.New()
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("When lemmatization is enabled without a project", func() {
			cfg.Rouge.Lemmatize = true
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the snowball stemmer is selected", func() {
			cfg.Rouge.Stemmer = "snowball"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the stemmer is unknown", func() {
			cfg.Rouge.Stemmer = "lancaster"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When bleu.max_n is zero", func() {
			cfg.Bleu.MaxN = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When bert.batch_size is zero", func() {
			cfg.BERT.BatchSize = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
