// Package credential provides the service credential required by the
// privileged creation endpoints (POST /companies, POST /users).
package credential

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
)

var errNotConfigured = &domain.ErrUnauthorized{Message: "credencial de serviço não configurada"}

// FileSource reads the credential from a file on every call, so a rotated
// credential takes effect without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ServiceToken returns the trimmed file content.
func (s *FileSource) ServiceToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read service credential: %w", err)
	}
	tok := strings.TrimSpace(string(raw))
	if tok == "" {
		return "", errNotConfigured
	}
	return tok, nil
}

// StaticSource serves a credential issued out of band (e.g. injected in the environment).
type StaticSource struct {
	token string
}

// NewStaticSource creates a StaticSource.
func NewStaticSource(token string) *StaticSource {
	return &StaticSource{token: strings.TrimSpace(token)}
}

// ServiceToken returns the configured credential or an unauthorized error when empty.
func (s *StaticSource) ServiceToken(_ context.Context) (string, error) {
	if s.token == "" {
		return "", errNotConfigured
	}
	return s.token, nil
}
