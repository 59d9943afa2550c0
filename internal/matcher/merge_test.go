package matcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sped-tools/efd-reconcile/pkg/utils"
)

func stagedFile(t *testing.T, dir, name string, lines ...string) FileResult {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return FileResult{Path: name, StagingPath: path}
}

func TestMergeDedupsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	files := []FileResult{
		stagedFile(t, dir, "a.tmp", "chave;valor", "111;10,00"),
		stagedFile(t, dir, "b.tmp", "111;10,00", "222;20,00"),
	}

	stats, err := MergeStaging(target, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"chave;valor", "111;10,00", "222;20,00"}, readLines(t, target))
	assert.Equal(t, 3, stats.LinesWritten)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 2, stats.FilesMerged)

	// Staging outputs are consumed.
	assert.False(t, utils.FileExists(files[0].StagingPath))
	assert.False(t, utils.FileExists(files[1].StagingPath))
}

// Two staged lines that differ only in whitespace runs are one line.
func TestMergeNormalizesBeforeHashing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	files := []FileResult{
		stagedFile(t, dir, "a.tmp", "111;Fornecedor    Alfa"),
		stagedFile(t, dir, "b.tmp", "111;Fornecedor Alfa"),
	}

	stats, err := MergeStaging(target, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"111;Fornecedor Alfa"}, readLines(t, target))
	assert.Equal(t, 1, stats.Duplicates)
}

func TestMergeKeepsFirstSeenOrder(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	files := []FileResult{
		stagedFile(t, dir, "a.tmp", "um", "dois"),
		stagedFile(t, dir, "b.tmp", "tres", "dois"),
	}

	_, err := MergeStaging(target, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"um", "dois", "tres"}, readLines(t, target))
}

func TestMergeSkipsFailedAndMissingProducers(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	files := []FileResult{
		{Path: "failed.csv", Err: errors.New("schema violation")},
		{Path: "vanished.csv", StagingPath: filepath.Join(dir, "gone.tmp")},
		stagedFile(t, dir, "c.tmp", "111;ok"),
	}

	stats, err := MergeStaging(target, files)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Equal(t, 1, stats.FilesMerged)
	assert.Equal(t, []string{"111;ok"}, readLines(t, target))
}

func TestMergeWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	stats, err := MergeStaging(target, nil)
	require.NoError(t, err)

	assert.Zero(t, stats.LinesWritten)
	assert.True(t, utils.FileExists(target))
}
