package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailLogPersistsSortedAndDeduplicated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_files.json")

	log, err := OpenFailLog(path)
	require.NoError(t, err)

	require.NoError(t, log.Add("zeta.pdf"))
	require.NoError(t, log.Add("alpha.docx"))
	require.NoError(t, log.Add("zeta.pdf"))

	assert.Equal(t, []string{"alpha.docx", "zeta.pdf"}, log.Names())

	// Entries survive a restart.
	reopened, err := OpenFailLog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.docx", "zeta.pdf"}, reopened.Names())
}

func TestFailLogMissingFileIsEmpty(t *testing.T) {
	log, err := OpenFailLog(filepath.Join(t.TempDir(), "nope", "failed_files.json"))
	require.NoError(t, err)
	assert.Empty(t, log.Names())
}

func TestFailLogRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_files.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenFailLog(path)
	assert.Error(t, err)
}
