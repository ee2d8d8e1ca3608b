package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "tallybook.db"))

	assert.FileExists(t, filepath.Join(dir, "tallybook.yaml"))
	assert.FileExists(t, filepath.Join(dir, "tallybook.db"))
	assert.DirExists(t, filepath.Join(dir, "logs"))

	a, err := openApp(dir)
	require.NoError(t, err)
	defer a.close()

	// Default roots are in place, so accounts can be created straight
	// away.
	cats, err := a.categories.All()
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
}

func TestRunInit_AlreadyInitialized(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "tallybook.db"))
	require.Error(t, runInit(dir, "tallybook.db"))
}

func TestOpenApp_MissingConfig(t *testing.T) {
	_, err := openApp(t.TempDir())
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	// Config env overrides would leak between tests otherwise.
	os.Unsetenv("TALLYBOOK_DB_PATH")
	os.Exit(m.Run())
}
