package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedsCSVWithURLColumn(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "name,url,priority\nAcme,https://acme.example.com/,1\nBeta,https://beta.example.com/,2\n")

	seeds, err := loadSeedsCSV(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://acme.example.com/", "https://beta.example.com/"}, seeds)
}

func TestLoadSeedsCSVSkipsBlankCells(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "url\nhttps://acme.example.com/\n\nhttps://beta.example.com/\n")

	seeds, err := loadSeedsCSV(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)
}

func TestLoadSeedsCSVHeaderless(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "https://acme.example.com/\nhttps://beta.example.com/\n")

	seeds, err := loadSeedsCSV(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://acme.example.com/", "https://beta.example.com/"}, seeds)
}

func TestLoadSeedsCSVRejectsUnknownLayout(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "name,website\nAcme,https://acme.example.com/\n")

	_, err := loadSeedsCSV(path)
	require.Error(t, err)
}

func TestLoadSeedsCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadSeedsCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestResolveSeedsPrefersArguments(t *testing.T) {
	t.Parallel()

	seeds, err := resolveSeeds([]string{"https://a.example.com/"}, "ignored.csv", "also-ignored.csv")
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example.com/"}, seeds)
}
