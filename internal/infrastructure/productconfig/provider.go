// Package productconfig loads versioned product configuration from YAML
// release files and serves it to the application layer. A release file is an
// immutable snapshot; the provider caches parsed releases and invalidates
// the cache when the directory changes on disk.
package productconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// releaseFile is the on-disk shape of one product release.
type releaseFile struct {
	ProductName       string `yaml:"productName"`
	QuoteNumberPrefix string `yaml:"quoteNumberPrefix"`
	QuoteExpiryDays   int    `yaml:"quoteExpiryDays"`
	PolicyTermDays    int    `yaml:"policyTermDays"`

	Payment *product.PaymentConfiguration `yaml:"payment"`

	Workflow struct {
		Name        string                       `yaml:"name"`
		Transitions map[string]map[string]string `yaml:"transitions"`
	} `yaml:"workflow"`

	Rating *RatingDefinition `yaml:"rating"`

	Forms map[string]map[string]interface{} `yaml:"forms"`
}

// defaultsFile maps environments to their default release per product.
type defaultsFile struct {
	Defaults map[string]string `yaml:"defaults"`
}

// Provider serves parsed product releases from a directory laid out as
// <dir>/<productID>/<releaseID>.yaml with a releases.yaml defaults index per
// product.
type Provider struct {
	dir     string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	cache map[string]*parsedRelease
}

type parsedRelease struct {
	config  *product.Configuration
	rating  *RatingDefinition
	schemas map[product.FormType]product.FormSchema
}

func NewProvider(dir string, logger *zap.Logger) (*Provider, error) {
	p := &Provider{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*parsedRelease),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	p.watcher = watcher
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching config directory %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("reading config directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(dir, entry.Name())); err != nil {
				logger.Warn("failed to watch product directory",
					zap.String("product", entry.Name()),
					zap.Error(err))
			}
		}
	}
	go p.watch()
	return p, nil
}

// Close stops the directory watcher.
func (p *Provider) Close() error {
	return p.watcher.Close()
}

// watch drops cached releases when their files change. Release files are
// immutable by convention, but local development edits them in place.
func (p *Provider) watch() {
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				p.mu.Lock()
				p.cache = make(map[string]*parsedRelease)
				p.mu.Unlock()
				p.logger.Info("product configuration changed on disk, cache dropped",
					zap.String("file", event.Name))
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

var _ ports.ProductConfigProvider = (*Provider)(nil)

func (p *Provider) GetProductConfiguration(ctx context.Context, rc shared.ReleaseContext, formType product.FormType) (*product.Configuration, error) {
	release, err := p.release(rc)
	if err != nil {
		return nil, err
	}
	return release.config, nil
}

func (p *Provider) GetFormDataSchema(ctx context.Context, rc shared.ReleaseContext, formType product.FormType) (product.FormSchema, error) {
	release, err := p.release(rc)
	if err != nil {
		return nil, err
	}
	schema, ok := release.schemas[formType]
	if !ok {
		return nil, errors.NotFound(errors.CodeProductConfigNotFound.String(), "release has no form of the requested type").
			WithData("formType", string(formType)).
			WithData("release", rc.String()).
			Build()
	}
	return schema, nil
}

// ratingFor exposes the release's rating definition to the rating service.
func (p *Provider) ratingFor(rc shared.ReleaseContext) (*RatingDefinition, error) {
	release, err := p.release(rc)
	if err != nil {
		return nil, err
	}
	if release.rating == nil {
		return nil, errors.NotFound(errors.CodeProductConfigNotFound.String(), "release has no rating definition").
			WithData("release", rc.String()).
			Build()
	}
	return release.rating, nil
}

func (p *Provider) release(rc shared.ReleaseContext) (*parsedRelease, error) {
	key := rc.String()
	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := filepath.Join(p.dir, rc.ProductID.String(), rc.ProductReleaseID.String()+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(errors.CodeReleaseNotFound.String(), "product release not found").
				WithData("release", key).
				Build()
		}
		return nil, errors.Internal(errors.CodeInternalError.String(), "reading product release file").
			WithData("path", path).
			WithCause(err).
			Build()
	}

	var file releaseFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Internal(errors.CodeProductConfigNotFound.String(), "parsing product release file").
			WithData("path", path).
			WithCause(err).
			Build()
	}
	parsed, err := p.parse(&file)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = parsed
	p.mu.Unlock()
	return parsed, nil
}

func (p *Provider) parse(file *releaseFile) (*parsedRelease, error) {
	table := make(map[quote.Action]map[quote.State]quote.TransitionRule, len(file.Workflow.Transitions))
	for action, byState := range file.Workflow.Transitions {
		rules := make(map[quote.State]quote.TransitionRule, len(byState))
		for from, to := range byState {
			rules[quote.State(from)] = quote.TransitionRule{ResultingState: quote.State(to)}
		}
		table[quote.Action(action)] = rules
	}
	workflow := quote.NewWorkflow(file.Workflow.Name, table)
	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	schemas := make(map[product.FormType]product.FormSchema, len(file.Forms))
	for formType, schema := range file.Forms {
		schemas[product.FormType(formType)] = product.FormSchema(schema)
	}

	return &parsedRelease{
		config: &product.Configuration{
			ProductName:       file.ProductName,
			QuoteNumberPrefix: file.QuoteNumberPrefix,
			QuoteExpiry:       time.Duration(file.QuoteExpiryDays) * 24 * time.Hour,
			PolicyTerm:        time.Duration(file.PolicyTermDays) * 24 * time.Hour,
			Workflow:          workflow,
			Payment:           file.Payment,
		},
		rating:  file.Rating,
		schemas: schemas,
	}, nil
}
