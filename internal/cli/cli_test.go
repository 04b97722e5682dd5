package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/fitstore/internal/config"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/repository"
	"github.com/fjod/fitstore/internal/twin"
)

var envKeys = []string{
	"HTTP_PORT", "API_BASE_URL", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT", "DB_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "CATALOG_CACHE_TTL", "CATALOG_LIMIT", "GUEST_BALANCE",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "LOG_LEVEL", "TWIN_PORT", "TWIN_SECRET", "RECEIPT_DIR",
}

type env struct {
	dbPath     string
	receiptDir string
	apiURL     string
}

// setupEnv points the configuration at a seeded twin and a temp database.
func setupEnv(t *testing.T) env {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}

	mem := twin.NewMemoryStore()
	twin.Seed(mem)
	srv := httptest.NewServer(twin.NewServer(mem, twin.NewTokenManager("test", time.Hour), slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	e := env{
		dbPath:     filepath.Join(dir, "fitstore.db"),
		receiptDir: filepath.Join(dir, "receipts"),
		apiURL:     srv.URL,
	}
	t.Setenv("API_BASE_URL", e.apiURL)
	t.Setenv("DB_PATH", e.dbPath)
	t.Setenv("RECEIPT_DIR", e.receiptDir)
	t.Setenv("LOG_LEVEL", "error")
	return e
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedReceipt(t *testing.T, dbPath string, tx string) {
	t.Helper()
	repo, err := repository.NewRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.RunMigrations())
	require.NoError(t, repo.SaveReceipt(context.Background(), domain.IssuedReceipt{
		RequestID: "req-" + tx,
		Receipt: domain.Receipt{
			TransactionID: tx,
			Datetime:      time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC),
			User:          &domain.ReceiptUser{ID: 1, Name: "Ana Pérez", Email: "ana@example.com"},
			Total:         90,
			Balance:       160,
		},
		Lines: []domain.ReceiptLine{{ItemID: "1", Name: "Nike Air Max", Quantity: 2, UnitPrice: 45}},
	}))
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"serve"}, {"twin"}, {"catalog"}, {"receipts", "list"}, {"receipts", "export"}} {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "receipts", "list", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("CATALOG_LIMIT", "lots")

	_, err := execute(t, "receipts", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCatalog_FiltersAgainstTwin(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "catalog", "--search", "GORRA", "--format", "json")
	require.NoError(t, err)

	var items []domain.CatalogItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)
	assert.Equal(t, "Gorra Fitcoin", items[0].Name)
}

func TestCatalog_TextTable(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "catalog", "--category", "Premios")
	require.NoError(t, err)
	assert.Contains(t, out, "NOMBRE")
	assert.Contains(t, out, "Botella térmica")
	assert.NotContains(t, out, "Gorra Fitcoin")
	assert.NotContains(t, out, "Mochila")
}

func TestCatalog_ServiceDown(t *testing.T) {
	setupEnv(t)
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("REQUEST_TIMEOUT", "500ms")

	_, err := execute(t, "catalog")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReceiptsList(t *testing.T) {
	e := setupEnv(t)
	seedReceipt(t, e.dbPath, "tx-1")

	out, err := execute(t, "receipts", "list", "--format", "json")
	require.NoError(t, err)

	var receipts []domain.IssuedReceipt
	require.NoError(t, json.Unmarshal([]byte(out), &receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, "tx-1", receipts[0].ID())

	out, err = execute(t, "receipts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tx-1")
	assert.Contains(t, out, "2x Nike Air Max")
}

func TestReceiptsList_InvalidLimit(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "receipts", "list", "--limit", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReceiptsExport(t *testing.T) {
	e := setupEnv(t)
	seedReceipt(t, e.dbPath, "tx-1")
	outDir := filepath.Join(t.TempDir(), "tickets")

	out, err := execute(t, "receipts", "export", "tx-1", "--dir", outDir)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "-1-tx-1.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestReceiptsExport_NotFound(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "receipts", "export", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrReceiptNotFound)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestNewStorefront_ServesAPI(t *testing.T) {
	e := setupEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, e.apiURL, cfg.APIBaseURL)

	sf, err := newStorefront(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { sf.Close() })
	assert.Nil(t, sf.publisher)
	assert.Nil(t, sf.redis)

	srv := httptest.NewServer(sf.handler)
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/api/v1/catalog")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 4, body.Count)
}

func TestNewStorefront_RedisUnreachable(t *testing.T) {
	setupEnv(t)
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = newStorefront(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
