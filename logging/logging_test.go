package logging

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := Setup(dir)
	require.NoError(t, err)

	logger.LogStartup("test")
	log.Printf("hello from the test")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "composer.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Composer test starting")
	assert.Contains(t, string(data), "hello from the test")
	assert.Contains(t, string(data), "Composer shutting down")
	assert.Equal(t, filepath.Join(dir, "composer.log"), logger.Path())
}
