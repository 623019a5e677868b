package productconfig

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// ReleaseService resolves the concrete release an operation runs against.
// Each product directory carries a releases.yaml mapping environment names
// to their current default release.
type ReleaseService struct {
	dir      string
	provider *Provider
}

func NewReleaseService(dir string, provider *Provider) *ReleaseService {
	return &ReleaseService{dir: dir, provider: provider}
}

var _ ports.ReleaseQueryService = (*ReleaseService)(nil)

func (s *ReleaseService) ResolveReleaseID(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID, env shared.Environment, override shared.ProductReleaseID) (shared.ProductReleaseID, error) {
	if !override.IsZero() {
		rc := shared.NewReleaseContext(tenantID, productID, env, override)
		if _, err := s.provider.release(rc); err != nil {
			return "", err
		}
		return override, nil
	}

	path := filepath.Join(s.dir, productID.String(), "releases.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound(errors.CodeReleaseNotFound.String(), "product has no release index").
				WithData("productId", productID.String()).
				Build()
		}
		return "", errors.Internal(errors.CodeInternalError.String(), "reading release index").
			WithData("path", path).
			WithCause(err).
			Build()
	}
	var file defaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return "", errors.Internal(errors.CodeProductConfigNotFound.String(), "parsing release index").
			WithData("path", path).
			WithCause(err).
			Build()
	}
	releaseID, ok := file.Defaults[env.String()]
	if !ok {
		return "", errors.NotFound(errors.CodeReleaseNotFound.String(), "no default release for environment").
			WithData("productId", productID.String()).
			WithData("environment", env.String()).
			Build()
	}
	return shared.ProductReleaseID(releaseID), nil
}
