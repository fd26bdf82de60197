package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aryan0dhankhar/staffdir/internal/repository"
	"github.com/aryan0dhankhar/staffdir/internal/service"
	"github.com/aryan0dhankhar/staffdir/internal/worker"
)

const document = `{
  "FUNCIONARIOS": [
    {"NOME": "Ana Souza", "SETOR": "TI", "UND": "SP", "DATA NASC": "10/07/2000"},
    {"NOME": "Bruno", "SETOR": "RH", "UND": "PV"}
  ],
  "Total": {"TOTAL_FUNCIONARIOS": 2}
}`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TIME_ZONE", "UTC")

	opts := &rootOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dados.JSON")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))
	return path
}

func TestListFromFile(t *testing.T) {
	path := writeDocument(t)

	out, err := runCLI(t, "list", "--file", path, "-q", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Souza")
	assert.NotContains(t, out, "Bruno")
	assert.Contains(t, out, "1 of 2 employees")
}

func TestListRejectsBadFilter(t *testing.T) {
	_, err := runCLI(t, "list", "--file", writeDocument(t), "--birth-month", "13")
	require.Error(t, err)
}

func TestAddToFileThenList(t *testing.T) {
	path := writeDocument(t)

	out, err := runCLI(t, "add", "--file", path, "--name", "Carlos", "--unit", "pv", "--field", "Ramal=214")
	require.NoError(t, err)
	assert.Contains(t, out, "PV")

	out, err = runCLI(t, "list", "--file", path)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	carlos, ana := -1, -1
	for i, l := range lines {
		if strings.Contains(l, "Carlos") && carlos < 0 {
			carlos = i
		}
		if strings.Contains(l, "Ana Souza") && ana < 0 {
			ana = i
		}
	}
	assert.True(t, carlos >= 0 && carlos < ana, "new record should be listed first")
	assert.Contains(t, out, "3 of 3 employees")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Ramal": "214"`)
}

func TestAddToSheetIsNotSaved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("FUNCIONARIOS,SETOR,UND\nAna,TI,SP\n"))
	}))
	defer srv.Close()

	_, err := runCLI(t, "add", "--sheet", srv.URL, "--name", "Carlos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record was not saved")
}

func TestSourcesAreExclusive(t *testing.T) {
	_, err := runCLI(t, "list", "--file", "a.json", "--sheet", "http://example.com")
	require.Error(t, err)
}

func TestFiltersCommand(t *testing.T) {
	out, err := runCLI(t, "filters", "--file", writeDocument(t))
	require.NoError(t, err)
	assert.Contains(t, out, "sectors: RH, TI")
	assert.Contains(t, out, "units:   PV, SP")
	assert.Contains(t, out, "tenure:  0-40")
}

func TestWatchRendersUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.NewMemoryStoreFromFile("", log)
	require.NoError(t, err)
	directory := service.NewDirectory(store, log, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, &out, directory, worker.NewRefresher(directory, log, 10*time.Millisecond))
	}()

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "employees") >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
