package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCompleteAppliesPortFlag(t *testing.T) {
	t.Setenv("S3_BUCKET", "uploads")
	t.Setenv("FILEGATE_PORT", "3000")

	o := NewServeOptions()
	cmd := NewServeCommand(o)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "8081"}))

	require.NoError(t, o.Complete(cmd, nil))
	require.NoError(t, o.Validate())
	assert.Equal(t, 8081, o.cfg.Server.Port)
	assert.Equal(t, "uploads", o.cfg.Storage.Bucket)
}

func TestServeCompleteKeepsEnvPortWithoutFlag(t *testing.T) {
	t.Setenv("S3_BUCKET", "uploads")
	t.Setenv("FILEGATE_PORT", "9090")

	o := NewServeOptions()
	cmd := NewServeCommand(o)
	require.NoError(t, cmd.ParseFlags(nil))

	require.NoError(t, o.Complete(cmd, nil))
	assert.Equal(t, 9090, o.cfg.Server.Port)
}

func TestServeCompleteReadsEnvFile(t *testing.T) {
	// dotenv never overrides variables that are already set
	t.Setenv("S3_BUCKET", "")
	require.NoError(t, os.Unsetenv("S3_BUCKET"))
	path := filepath.Join(t.TempDir(), "filegate.env")
	require.NoError(t, os.WriteFile(path, []byte("S3_BUCKET=from-env-file\n"), 0o600))

	o := NewServeOptions()
	cmd := NewServeCommand(o)
	require.NoError(t, cmd.ParseFlags([]string{"--env-file", path}))

	require.NoError(t, o.Complete(cmd, nil))
	assert.Equal(t, "from-env-file", o.cfg.Storage.Bucket)
}

func TestServeCompleteRequiresBucket(t *testing.T) {
	t.Setenv("S3_BUCKET", "")

	o := NewServeOptions()
	cmd := NewServeCommand(o)
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Error(t, o.Complete(cmd, nil))
}

func TestServeValidateRejectsBadPort(t *testing.T) {
	t.Setenv("S3_BUCKET", "uploads")

	o := NewServeOptions()
	cmd := NewServeCommand(o)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "70000"}))
	require.NoError(t, o.Complete(cmd, nil))

	assert.Error(t, o.Validate())
}

func TestRootCommandHasServe(t *testing.T) {
	root := NewRootCommand()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.NotNil(t, root.Flags().Lookup("env-file"))
}
