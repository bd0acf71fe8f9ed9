package credential_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/boddenberg/stock-admin-panel-go/internal/credential"
	"github.com/boddenberg/stock-admin-panel-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_PicksUpRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service-token")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))

	src := credential.NewFileSource(path)
	tok, err := src.ServiceToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	tok, err = src.ServiceToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tok)
}

func TestFileSource_EmptyOrMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := credential.NewFileSource(filepath.Join(dir, "missing")).ServiceToken(context.Background())
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = credential.NewFileSource(empty).ServiceToken(context.Background())
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func TestStaticSource(t *testing.T) {
	tok, err := credential.NewStaticSource(" abc ").ServiceToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = credential.NewStaticSource("").ServiceToken(context.Background())
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}
