package pages

import (
	"log/slog"
	"strings"

	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// DefaultSiteURL is the public origin used in sitemaps.
const DefaultSiteURL = "https://waspscripts.com"

// Assembler builds page data from the repository, the category catalog and
// the packages bucket.
type Assembler struct {
	repository waspweb.Repository
	catalog    CategorySource
	packages   waspweb.BlobStore
	siteURL    string
	logger     *slog.Logger
}

// Option represents a functional option for configuring the Assembler
type Option func(*Assembler)

// WithCatalog sets the source of categories and subcategories. By default
// they are read from the repository without caching.
func WithCatalog(catalog CategorySource) Option {
	return func(a *Assembler) {
		a.catalog = catalog
	}
}

// WithPackageStore sets the blob store of the packages bucket.
func WithPackageStore(store waspweb.BlobStore) Option {
	return func(a *Assembler) {
		a.packages = store
	}
}

// WithSiteURL sets the public origin used in sitemap locations.
func WithSiteURL(siteURL string) Option {
	return func(a *Assembler) {
		if siteURL != "" {
			a.siteURL = strings.TrimRight(siteURL, "/")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New creates an Assembler.
func New(repository waspweb.Repository, options ...Option) *Assembler {
	a := &Assembler{
		repository: repository,
		catalog:    repository,
		siteURL:    DefaultSiteURL,
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// serverError is the message shown when a query the page depends on failed.
func serverError(query string, err error) *waspweb.Failure {
	return waspweb.Upstream(
		"Server error, this is probably not an issue on your end! - "+query+" failed: "+err.Error(),
		err,
	)
}
