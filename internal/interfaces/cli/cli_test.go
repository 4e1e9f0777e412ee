package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	contractapp "github.com/courtage/backend/internal/application/contract"
	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTenant = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type fakeGrids struct {
	tenant  uuid.UUID
	content string
	result  *rategridapp.ImportResult
}

func (f *fakeGrids) ImportCSV(_ context.Context, tenantID uuid.UUID, r io.Reader) (*rategridapp.ImportResult, error) {
	f.tenant = tenantID
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.content = string(data)
	return f.result, nil
}

type fakeLifecycle struct {
	day time.Time
}

func (f *fakeLifecycle) RunLifecycle(_ context.Context, day time.Time) (*contractapp.LifecycleResult, error) {
	f.day = day
	return &contractapp.LifecycleResult{Activated: 3, Expired: 2}, nil
}

type fakeBordereaux struct {
	req     bordereauapp.GenerateBordereauRequest
	formats []bordereauapp.Format
}

func (f *fakeBordereaux) Generate(_ context.Context, _ uuid.UUID, req bordereauapp.GenerateBordereauRequest) (*bordereauapp.BordereauResponse, error) {
	f.req = req
	return &bordereauapp.BordereauResponse{
		ID:          uuid.New(),
		Reference:   "BRD-2024-0001",
		CompanyID:   req.CompanyID,
		PeriodStart: req.StartDate,
		PeriodEnd:   req.EndDate,
		Totals: bordereauapp.TotalsResponse{
			Count:       4,
			TotalAmount: decimal.NewFromInt(250000),
			Commission:  decimal.NewFromInt(37500),
		},
	}, nil
}

func (f *fakeBordereaux) Export(_ context.Context, _, _ uuid.UUID, formats ...bordereauapp.Format) ([]bordereauapp.ExportResponse, error) {
	f.formats = formats
	out := make([]bordereauapp.ExportResponse, len(formats))
	for i, format := range formats {
		out[i] = bordereauapp.ExportResponse{Format: string(format), DownloadURL: "https://files.example/" + string(format)}
	}
	return out, nil
}

type fakeMigrator struct {
	calls  []string
	closed bool
}

func (m *fakeMigrator) Up() error { m.calls = append(m.calls, "up"); return nil }
func (m *fakeMigrator) Down() error { m.calls = append(m.calls, "down"); return nil }
func (m *fakeMigrator) Steps(n int) error { m.calls = append(m.calls, "steps"); return nil }
func (m *fakeMigrator) Version() (uint, bool, error) { return 2, false, nil }
func (m *fakeMigrator) Force(int) error { m.calls = append(m.calls, "force"); return nil }
func (m *fakeMigrator) Close() error { m.closed = true; return nil }

type harness struct {
	grids      *fakeGrids
	lifecycle  *fakeLifecycle
	bordereaux *fakeBordereaux
	migrator   *fakeMigrator
	opened     int
	released   int
}

func newHarness() *harness {
	return &harness{
		grids:      &fakeGrids{result: &rategridapp.ImportResult{Encoding: "utf-8", TotalRows: 2, Created: 2}},
		lifecycle:  &fakeLifecycle{},
		bordereaux: &fakeBordereaux{},
		migrator:   &fakeMigrator{},
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		LoadConfig: func(string) (*config.Config, error) {
			return &config.Config{App: config.AppConfig{DefaultTenantID: testTenant.String()}}, nil
		},
		OpenServices: func(context.Context, *config.Config, *zap.Logger) (*Services, func(), error) {
			h.opened++
			return &Services{Grids: h.grids, Lifecycle: h.lifecycle, Bordereaux: h.bordereaux}, func() { h.released++ }, nil
		},
		OpenMigrator: func(context.Context, *config.Config, *zap.Logger) (Migrator, error) {
			return h.migrator, nil
		},
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(h.deps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommands(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "migrate", "up")
	require.NoError(t, err)
	_, err = h.run(t, "migrate", "steps", "--", "-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"up", "steps"}, h.migrator.calls)
	assert.True(t, h.migrator.closed)

	out, err := h.run(t, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "version 2 (dirty: false)\n", out)

	_, err = h.run(t, "migrate", "steps", "zero")
	assert.Error(t, err)
}

func TestGridImport(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte("class;zone;power\n"), 0o600))

	out, err := h.run(t, "grid", "import", path)
	require.NoError(t, err)
	assert.Equal(t, testTenant, h.grids.tenant)
	assert.Equal(t, "class;zone;power\n", h.grids.content)
	assert.Contains(t, out, "created: 2")
	assert.Equal(t, 1, h.released)
}

func TestGridImport_Rejected(t *testing.T) {
	h := newHarness()
	h.grids.result = &rategridapp.ImportResult{TotalRows: 2, TotalErrors: 1}
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := h.run(t, "grid", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 row errors")
}

func TestLifecycleRun(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "lifecycle", "run", "--day", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), h.lifecycle.day)
	assert.Equal(t, "2024-03-01: activated 3, expired 2, failed 0\n", out)

	out, err = h.run(t, "lifecycle", "run", "--day", "2024-03-01", "-o", "json")
	require.NoError(t, err)
	var result contractapp.LifecycleResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.Activated)

	_, err = h.run(t, "lifecycle", "run", "--day", "01/03/2024")
	assert.Error(t, err)
}

func TestBordereauGenerate(t *testing.T) {
	h := newHarness()
	companyID := uuid.New()

	out, err := h.run(t, "bordereau", "generate",
		"--company", companyID.String(),
		"--from", "2024-01-01",
		"--to", "2024-01-31",
		"--export", "PDF,xlsx",
	)
	require.NoError(t, err)
	assert.Equal(t, companyID, h.bordereaux.req.CompanyID)
	assert.Equal(t, []bordereauapp.Format{bordereauapp.FormatPDF, bordereauapp.FormatXLSX}, h.bordereaux.formats)
	assert.Contains(t, out, "BRD-2024-0001 2024-01-01..2024-01-31: 4 lines, total 250000, commission 37500")
	assert.Contains(t, out, "xlsx: https://files.example/xlsx")
}

func TestBordereauGenerate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing company", []string{"--from", "2024-01-01", "--to", "2024-01-31"}},
		{"bad company", []string{"--company", "acme", "--from", "2024-01-01", "--to", "2024-01-31"}},
		{"reversed period", []string{"--company", uuid.NewString(), "--from", "2024-02-01", "--to", "2024-01-31"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.run(t, append([]string{"bordereau", "generate"}, tt.args...)...)
			assert.Error(t, err)
			assert.Zero(t, h.opened)
		})
	}
}

func TestRoot_InvalidTenantAndOutput(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "--tenant", "not-a-uuid", "lifecycle", "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tenant id")

	_, err = h.run(t, "-o", "yaml", "lifecycle", "run")
	require.Error(t, err)
	assert.Zero(t, h.opened)
}

func TestRoot_ServicesFailure(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	deps.OpenServices = func(context.Context, *config.Config, *zap.Logger) (*Services, func(), error) {
		return nil, nil, errors.New("connection refused")
	}
	cmd := NewRootCommand(deps)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"lifecycle", "run"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open services")
}
