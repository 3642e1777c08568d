package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/ferryroutes/internal/config"
	"github.com/law-makers/ferryroutes/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

type stubBrowser struct{ closed bool }

func (s *stubBrowser) Navigate(ctx context.Context, url string) error { return nil }
func (s *stubBrowser) HTML(ctx context.Context) (string, error) {
	return `<input name="_token" value="t"><select name="ticket_org"><option value="5">Kupang|KOE - Tenau</option></select>`, nil
}
func (s *stubBrowser) PostForm(ctx context.Context, endpoint, body string) (string, error) {
	return `<option value="9">Ende</option>`, nil
}
func (s *stubBrowser) Cookies(ctx context.Context, url string) ([]*http.Cookie, error) {
	return nil, nil
}
func (s *stubBrowser) UserAgent() string { return "stub" }
func (s *stubBrowser) Close() error      { s.closed = true; return nil }

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)
}

func TestSetupLogger_Levels(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	}
	for name, want := range cases {
		cfg := config.Defaults()
		cfg.LogLevel = name
		setupLogger(cfg, &bytes.Buffer{})
		require.Equal(t, want, zerolog.GlobalLevel(), name)
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	cfg := config.Defaults()
	cfg.JSONLog = true
	setupLogger(cfg, &buf)

	log.Info().Str("k", "v").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "v", line["k"])
}

func TestApplication_Pipeline(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	cfg := config.Defaults()
	cfg.LogLevel = "error"
	cfg.RequestDelay = 0
	cfg.Output = filepath.Join(t.TempDir(), "out.json")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	stub := &stubBrowser{}
	a.Opener = func(ctx context.Context) (pipeline.Browser, error) { return stub, nil }

	var progress []int
	res, err := a.Pipeline(func(done, total int) { progress = append(progress, done) }).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Equal(t, "9", res.Records[0].Dest)
	require.Equal(t, "Kupang", res.Records[0].City)
	require.Equal(t, []int{1}, progress)
	require.True(t, stub.closed)
}

func TestApplication_RunContext(t *testing.T) {
	cfg := config.Defaults()
	cfg.RunTimeout = time.Minute
	a := &Application{Config: cfg}

	ctx, cancel := a.RunContext(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	require.True(t, ok)

	cfg.RunTimeout = 0
	ctx2, cancel2 := a.RunContext(context.Background())
	defer cancel2()
	_, ok = ctx2.Deadline()
	require.False(t, ok)
}
