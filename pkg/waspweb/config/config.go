package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/auth/discord"
	"github.com/waspscripts/wasp-web/pkg/waspweb/auth/gotrue"
	"github.com/waspscripts/wasp-web/pkg/waspweb/repo/memory"
	repopg "github.com/waspscripts/wasp-web/pkg/waspweb/repo/postgres"
	fsstorage "github.com/waspscripts/wasp-web/pkg/waspweb/storage/fs"
	memorystorage "github.com/waspscripts/wasp-web/pkg/waspweb/storage/memory"
	s3storage "github.com/waspscripts/wasp-web/pkg/waspweb/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     repopg.DefaultSchema,
		StorageType:  "memory",
		S3: S3Config{
			Region: "us-east-1",
			Buckets: map[string]string{
				waspweb.BucketScripts:  waspweb.BucketScripts,
				waspweb.BucketImages:   waspweb.BucketImages,
				waspweb.BucketPackages: waspweb.BucketPackages,
			},
		},
		SiteURL: "https://waspscripts.com",
	}
}

// ServerConfig represents the configuration of the wasp-web server
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string

	// Storage configuration
	StorageType string // "memory", "fs", "s3"
	FSBaseDir   string
	S3          S3Config

	// Hosted auth service
	AuthURL       string
	AuthAnonKey   string
	AuthJWTSecret string

	// Admin service account
	AdminEmail    string
	AdminPassword string

	APIURL  string
	SiteURL string

	// AdminAPIKeySHA256 protects the admin profile routes.
	AdminAPIKeySHA256 string

	AwaitUploads bool
}

// S3Config holds the connection shared by every bucket. Buckets maps the
// logical bucket names to the S3 bucket names.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Buckets         map[string]string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.FSBaseDir == "" {
			return errors.New("fs_base_dir is required when using fs storage")
		}
	case "s3":
		for _, name := range []string{waspweb.BucketScripts, waspweb.BucketImages, waspweb.BucketPackages} {
			if c.S3.Buckets[name] == "" {
				return fmt.Errorf("s3 bucket for '%s' is not configured", name)
			}
		}
	default:
		return errors.New("storage_type must be 'memory', 'fs' or 's3'")
	}

	if c.AuthURL != "" && c.AuthJWTSecret == "" {
		return errors.New("auth_jwt_secret is required when auth_url is set")
	}

	return nil
}

// Resources holds everything built from a ServerConfig. Close releases the
// database pool when there is one.
type Resources struct {
	Repository waspweb.Repository
	Stores     map[string]waspweb.BlobStore
	Uploader   *waspweb.Uploader
	Publisher  *waspweb.Publisher
	Auth       waspweb.AuthClient
	Refresher  *discord.Refresher

	pool *pgxpool.Pool
}

// Close releases the database pool.
func (r *Resources) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Build creates the repository, the blob stores and the clients described
// by the configuration.
func (c *ServerConfig) Build(ctx context.Context) (*Resources, error) {
	res := &Resources{}

	repo, pool, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	res.Repository = repo
	res.pool = pool

	res.Stores, err = c.BuildBlobStores()
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("failed to build blob stores: %w", err)
	}

	var uploaderOpts []waspweb.UploaderOption
	for bucket, store := range res.Stores {
		uploaderOpts = append(uploaderOpts, waspweb.WithBucket(bucket, store))
	}
	res.Uploader = waspweb.NewUploader(uploaderOpts...)

	res.Publisher, err = waspweb.NewPublisher(repo, res.Uploader, waspweb.WithAwaitUploads(c.AwaitUploads))
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("failed to build publisher: %w", err)
	}

	if c.AuthURL != "" {
		res.Auth, err = gotrue.NewClient(c.AuthURL, c.AuthAnonKey)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("failed to build auth client: %w", err)
		}
	}

	if c.APIURL != "" {
		res.Refresher = discord.NewRefresher(c.APIURL)
	}

	return res, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (waspweb.Repository, *pgxpool.Pool, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool, repopg.WithSchema(c.DBSchema)), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildBlobStores creates one BlobStore per logical bucket. The fs backend
// keeps each bucket in its own directory below FSBaseDir.
func (c *ServerConfig) BuildBlobStores() (map[string]waspweb.BlobStore, error) {
	stores := make(map[string]waspweb.BlobStore)
	for _, name := range []string{waspweb.BucketScripts, waspweb.BucketImages, waspweb.BucketPackages} {
		switch c.StorageType {
		case "memory":
			stores[name] = memorystorage.New()
		case "fs":
			backend, err := fsstorage.New(fsstorage.Config{
				BaseDir: filepath.Join(c.FSBaseDir, c.S3.Buckets[name]),
			})
			if err != nil {
				return nil, fmt.Errorf("bucket %s: %w", name, err)
			}
			stores[name] = backend
		case "s3":
			backend, err := s3storage.New(s3storage.Config{
				Region:          c.S3.Region,
				Bucket:          c.S3.Buckets[name],
				AccessKeyID:     c.S3.AccessKeyID,
				SecretAccessKey: c.S3.SecretAccessKey,
				Endpoint:        c.S3.Endpoint,
				UsePathStyle:    c.S3.UsePathStyle,
			})
			if err != nil {
				return nil, fmt.Errorf("bucket %s: %w", name, err)
			}
			stores[name] = backend
		default:
			return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
		}
	}
	return stores, nil
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// LogSummary logs the non secret parts of the configuration.
func (c *ServerConfig) LogSummary(logger *slog.Logger) {
	logger.Info("Configuration loaded",
		"port", c.Port,
		"environment", c.Environment,
		"database", c.DatabaseType,
		"schema", c.DBSchema,
		"storage", c.StorageType,
		"auth", c.AuthURL != "",
		"site_url", c.SiteURL,
		"await_uploads", c.AwaitUploads,
		"buckets", strings.Join(bucketNames(c.S3.Buckets), ","),
	)
}

func bucketNames(buckets map[string]string) []string {
	names := make([]string, 0, len(buckets))
	for logical, actual := range buckets {
		names = append(names, logical+"="+actual)
	}
	sort.Strings(names)
	return names
}
