package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizvinicius2219/planimport/adapters/csvfile"
	"github.com/luizvinicius2219/planimport/adapters/excel"
	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/source"
	"github.com/luizvinicius2219/planimport/ports"
)

func testScanner() *Scanner {
	log := testLogger()
	return NewScanner(map[source.FileKind]ports.RowSource{
		source.KindExcel: excel.NewReader(log),
		source.KindCSV:   csvfile.NewReader("utf-8", log),
	}, log)
}

func TestScanOrdersAndClassifiesFiles(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "vendas.csv", "pedido;valor\n1;10\n")
	writeWorkbook(t, folder, "clientes.xlsx", "Plan1", [][]any{{"id", "nome"}, {1, "Ana"}})
	writeFile(t, folder, "notas.txt", "ignored")
	writeFile(t, folder, "antigo.xls", "legacy bytes")

	files, err := testScanner().Scan(context.Background(), folder)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "antigo.xls", files[0].File.Name)
	assert.Equal(t, "clientes.xlsx", files[1].File.Name)
	assert.Equal(t, "vendas.csv", files[2].File.Name)

	assert.Equal(t, source.KindLegacy, files[0].File.Kind)
	assert.Error(t, files[0].Err)
	assert.True(t, core.IsSourceError(files[0].Err))

	assert.Equal(t, source.KindExcel, files[1].File.Kind)
	require.NoError(t, files[1].Err)
	assert.Equal(t, []string{"Plan1"}, files[1].File.Sheets)
	assert.False(t, files[1].File.ModTime.IsZero())

	assert.Equal(t, source.KindCSV, files[2].File.Kind)
	require.NoError(t, files[2].Err)
	assert.Equal(t, []string{source.CSVSheet}, files[2].File.Sheets)
}

func TestScanEmptyFolder(t *testing.T) {
	files, err := testScanner().Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanIgnoresSubfolders(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "clientes.csv", "id;nome\n1;Ana\n")
	require.NoError(t, os.Mkdir(filepath.Join(folder, "arquivadas.csv"), 0o755))

	files, err := testScanner().Scan(context.Background(), folder)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "clientes.csv", files[0].File.Name)
}

func TestScanCorruptWorkbookCarriesError(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "quebrado.xlsx", "this is not a zip archive")

	files, err := testScanner().Scan(context.Background(), folder)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Error(t, files[0].Err)
	assert.True(t, core.IsSourceError(files[0].Err))
}

func TestScanUnreadableFolder(t *testing.T) {
	_, err := testScanner().Scan(context.Background(), "/does/not/exist")
	assert.Error(t, err)
}
