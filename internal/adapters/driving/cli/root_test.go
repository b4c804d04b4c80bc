package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/api"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/services"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

func TestMain(m *testing.M) {
	loadServices = func(*cobra.Command) error { return nil }
	os.Exit(m.Run())
}

// fakeAnswer records requests and replies with a fixed response.
type fakeAnswer struct {
	mu       sync.Mutex
	requests []domain.ChatRequest
	err      error
}

func (f *fakeAnswer) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	score := 0.82
	return &domain.ChatResponse{
		Response:        "Restart the VPN client.",
		ConversationID:  "conv-1",
		Confidence:      "high",
		ConfidenceScore: &score,
		Source:          "knowledge_base",
		AnswerType:      "rag",
		Sources: []domain.SourceDocument{
			{Title: "VPN Guide", SectionTitle: "Troubleshooting", URL: "https://wiki/vpn"},
		},
		ConversationRecordID: "rec-1",
	}, nil
}

type fakeFeedback struct {
	got []domain.Feedback
	err error
}

func (f *fakeFeedback) Submit(_ context.Context, fb domain.Feedback) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, fb)
	return nil
}

type fakeIngest struct {
	runs    []domain.IngestOptions
	stats   domain.IngestStats
	last    *domain.IngestStats
	lastErr error
	onRun   func(n int)
}

func (f *fakeIngest) Run(_ context.Context, opts domain.IngestOptions) domain.IngestStats {
	f.runs = append(f.runs, opts)
	if f.onRun != nil {
		f.onRun(len(f.runs))
	}
	return f.stats
}

func (f *fakeIngest) LastRun(context.Context) (*domain.IngestStats, error) {
	return f.last, f.lastErr
}

type fakeSource struct{}

func (fakeSource) SourceType() string { return "confluence" }

func (fakeSource) FetchPages(context.Context, string) ([]domain.SourcePage, error) { return nil, nil }

type fakeWatchSource struct {
	fakeSource
	changes chan struct{}
	err     error
}

func (f *fakeWatchSource) Watch(context.Context) (<-chan struct{}, error) {
	return f.changes, f.err
}

type testServices struct {
	answer   *fakeAnswer
	feedback *fakeFeedback
	ingest   *fakeIngest
	config   *memory.ConfigStore
}

// setupTestServices installs fakes behind the package-level services and
// restores everything when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		answer:   &fakeAnswer{},
		feedback: &fakeFeedback{},
		ingest:   &fakeIngest{},
		config:   memory.NewConfigStore(nil),
	}
	svc := services.NewSettingsService(ts.config, "/data")
	svc.SetEnvLookup(func(string) (string, bool) { return "", false })

	settingsService = svc
	answerService = ts.answer
	searchService = nil
	feedbackService = ts.feedback
	ingestService = ts.ingest
	pageSource = fakeSource{}

	t.Cleanup(func() {
		settingsService = nil
		answerService = nil
		searchService = nil
		feedbackService = nil
		ingestService = nil
		conversationReader = nil
		pageSource = nil
		healthInfo = api.Health{}
		promptStore = nil
		appLogger = logger.Nop()
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return ts
}

// resetFlags returns every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setContext hands ctx to every command; cobra only passes the root context
// down to subcommands that have none yet.
func setContext(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContext(ctx, c)
	}
}

func execute(ctx context.Context, args ...string) (string, error) {
	setContext(ctx, rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "helpdesk", rootCmd.Use)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"ask", "chat", "check", "feedback", "ingest", "mcp", "serve", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PipelineCommandsDeclareNeeds(t *testing.T) {
	assert.Equal(t, needsPipeline, askCmd.Annotations[needs])
	assert.Equal(t, needsPipeline, ingestCmd.Annotations[needs])
	assert.Equal(t, needsPipeline, serveCmd.Annotations[needs])
	assert.Equal(t, needsPipeline, mcpServeCmd.Annotations[needs])
	assert.Equal(t, needsStorage, feedbackCmd.Annotations[needs])
	assert.Empty(t, settingsCmd.Annotations[needs])
}

type ctxKey struct{}

func TestExecute_EachRunSeesItsOwnContext(t *testing.T) {
	setupTestServices(t)

	first := context.WithValue(context.Background(), ctxKey{}, "first")
	_, err := execute(first, "version")
	require.NoError(t, err)
	assert.Equal(t, "first", versionCmd.Context().Value(ctxKey{}))

	second := context.WithValue(context.Background(), ctxKey{}, "second")
	_, err = execute(second, "version")
	require.NoError(t, err)
	assert.Equal(t, "second", versionCmd.Context().Value(ctxKey{}))
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}

func TestBootstrap_SettingsOnly(t *testing.T) {
	setupTestServices(t)
	settingsService = nil
	feedbackService = nil

	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("HELPDESK_SERVER_ADDR=:9999\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("HELPDESK_SERVER_ADDR") })

	savedDir, savedEnv := configDir, envFile
	configDir, envFile = dir, envPath
	defer func() { configDir, envFile = savedDir, savedEnv }()
	defer shutdown()

	cmd := &cobra.Command{}
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, bootstrap(cmd))

	require.NotNil(t, settingsService)
	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, ":9999", settings.ServerAddr)
	assert.Equal(t, filepath.Join(dir, "helpdesk.db"), settings.StoragePath)
	assert.Nil(t, feedbackService)
}

func TestBootstrap_Storage(t *testing.T) {
	setupTestServices(t)
	feedbackService = nil

	dir := t.TempDir()
	savedDir, savedEnv := configDir, envFile
	configDir, envFile = dir, ""
	defer func() { configDir, envFile = savedDir, savedEnv }()

	cmd := &cobra.Command{Annotations: map[string]string{needs: needsStorage}}
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, bootstrap(cmd))
	defer shutdown()

	assert.NotNil(t, feedbackService)
	assert.NotNil(t, conversationReader)
	assert.FileExists(t, filepath.Join(dir, "helpdesk.db"))
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing explicit file is an error", func(t *testing.T) {
		err := loadEnv(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("missing default file is ignored", func(t *testing.T) {
		t.Chdir(t.TempDir())
		assert.NoError(t, loadEnv(""))
	})
}

func TestShutdown_ClosesInReverseOrder(t *testing.T) {
	var order []int
	closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
		func() error { order = append(order, 3); return nil },
	}

	shutdown()

	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Empty(t, closers)
}
