package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/csvparser"
	"github.com/ginjaninja78/proposal-reconciler/internal/store"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

const (
	salesCSV = "Cod da Proposta;Chassi;Loja;Banco;Valor Financiado\nA1;9BW1;Loja X;Banco Y;1.500,00\n;9BW2;Loja Z;;\n"
	itemsCSV = "Cod da Proposta;Tipo;Cortesia\nA1;Seguro;N\nB2;Seguro;S\n"
)

type fixture struct {
	cfg      *config.MainConfig
	store    *store.FileStore
	importer *Importer
	sales    string
	items    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(dir, "input")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.InputArchiveDir = filepath.Join(dir, "archive")
	cfg.Store.Path = filepath.Join(dir, "data", "import.json")

	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	sales := filepath.Join(cfg.InputDir, "vendas.csv")
	items := filepath.Join(cfg.InputDir, "itens.csv")
	require.NoError(t, os.WriteFile(sales, []byte(salesCSV), 0o600))
	require.NoError(t, os.WriteFile(items, []byte(itemsCSV), 0o600))

	st, err := store.NewFileStore(cfg.Store.Path)
	require.NoError(t, err)

	im := New(cfg, st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	im.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	im.newID = func() string { return "import-1" }

	return &fixture{cfg: cfg, store: st, importer: im, sales: sales, items: items}
}

func TestRunSavesResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.importer.Run(ctx, Options{SalesPath: f.sales, ItemsPath: f.items})
	require.NoError(t, err)

	assert.True(t, result.Saved)
	assert.Equal(t, types.Summary{
		SalesRows:        2,
		ItemsRows:        2,
		StructuralErrors: 1,
		PendingItems:     1,
		Proposals:        1,
		AttachedItems:    1,
	}, result.Summary)

	recon := result.Reconciliation
	assert.Equal(t, "import-1", recon.ImportID)
	assert.Equal(t, "utf-8", recon.Encoding, "default encoding from config")
	assert.True(t, recon.ImportedAt.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))

	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "import-1", stored.ImportID)
	require.Len(t, stored.Proposals, 1)
	assert.Equal(t, "A1", stored.Proposals[0].ProposalCode)

	assert.Empty(t, result.ErrorLog, "logs not requested")
	assert.Empty(t, result.Archived)
	assert.FileExists(t, f.sales)
}

func TestRunResolvesNamesInInputDir(t *testing.T) {
	f := newFixture(t)

	result, err := f.importer.Run(context.Background(), Options{SalesPath: "vendas.csv", ItemsPath: "itens.csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Proposals)
}

func TestRunDryRunSavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.importer.Run(ctx, Options{SalesPath: f.sales, ItemsPath: f.items, DryRun: true, Archive: true})
	require.NoError(t, err)
	assert.False(t, result.Saved)
	assert.Equal(t, 1, result.Summary.Proposals)

	_, err = f.store.Load(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.FileExists(t, f.sales, "dry runs never archive")
}

func TestRunReadFailureKeepsPreviousResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.importer.Run(ctx, Options{SalesPath: f.sales, ItemsPath: f.items})
	require.NoError(t, err)

	f.importer.newID = func() string { return "import-2" }

	_, err = f.importer.Run(ctx, Options{SalesPath: f.sales, ItemsPath: filepath.Join(f.cfg.InputDir, "missing.csv")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "import-1", stored.ImportID)
}

func TestRunEncodingErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.importer.Run(ctx, Options{SalesPath: f.sales, ItemsPath: f.items, Encoding: "ebcdic"})
	assert.ErrorIs(t, err, csvparser.ErrUnsupportedEncoding)

	latin := filepath.Join(f.cfg.InputDir, "latin.csv")
	require.NoError(t, os.WriteFile(latin, []byte{'C', 0xF3, 'd', '\n'}, 0o600))

	_, err = f.importer.Run(ctx, Options{SalesPath: latin, ItemsPath: f.items, Encoding: "utf-8"})
	assert.ErrorIs(t, err, csvparser.ErrInvalidText)

	_, err = f.store.Load(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunLatin1(t *testing.T) {
	f := newFixture(t)

	sales := filepath.Join(f.cfg.InputDir, "vendas-latin1.csv")
	raw := []byte("C\xf3digo da Proposta;Loja\nP1;S\xe3o Paulo\n")
	require.NoError(t, os.WriteFile(sales, raw, 0o600))

	result, err := f.importer.Run(context.Background(), Options{SalesPath: sales, ItemsPath: f.items, Encoding: "iso-8859-1"})
	require.NoError(t, err)

	require.Len(t, result.Reconciliation.Proposals, 1)
	p := result.Reconciliation.Proposals[0]
	assert.Equal(t, "P1", p.ProposalCode)
	assert.Equal(t, "São Paulo", *p.Store)
	assert.Equal(t, "iso-8859-1", result.Reconciliation.Encoding)
}

func TestRunCancelledContext(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.importer.Run(ctx, Options{SalesPath: f.sales, ItemsPath: f.items})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunExportLogsAndArchive(t *testing.T) {
	f := newFixture(t)
	export := filepath.Join(f.cfg.OutputDir, "report.xlsx")
	require.NoError(t, os.MkdirAll(f.cfg.OutputDir, 0o755))

	result, err := f.importer.Run(context.Background(), Options{
		SalesPath:  f.sales,
		ItemsPath:  f.items,
		ExportPath: export,
		WriteLogs:  true,
		Archive:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, export, result.ExportFile)
	assert.FileExists(t, export)

	require.NotEmpty(t, result.ErrorLog)
	assert.FileExists(t, result.ErrorLog)
	require.NotEmpty(t, result.SummaryLog)
	assert.FileExists(t, result.SummaryLog)

	require.Len(t, result.Archived, 2)
	assert.Equal(t, filepath.Join(f.cfg.InputArchiveDir, "import-1_vendas.csv"), result.Archived[0])
	assert.Equal(t, filepath.Join(f.cfg.InputArchiveDir, "import-1_itens.csv"), result.Archived[1])
	assert.NoFileExists(t, f.sales)
	assert.NoFileExists(t, f.items)
}

func TestErrorLogEntries(t *testing.T) {
	recon := &types.ReconciliationResult{
		Errors:  []types.StructuralError{{Kind: types.KindItems, Line: 4, Message: types.MissingKeyMessage}},
		Pending: []types.PendingItem{{Kind: types.KindItems, Line: 9, ProposalCode: "Z", Message: types.PendingItemMessage}},
	}

	entries := ErrorLogEntries(recon)
	require.Len(t, entries, 2)
	assert.Equal(t, "structural", entries[0].ErrorType)
	assert.Equal(t, "Items", entries[0].Dataset)
	assert.Equal(t, 4, entries[0].RowNumber)
	assert.Equal(t, "pending", entries[1].ErrorType)
	assert.Equal(t, "Z", entries[1].ProposalCode)
}
