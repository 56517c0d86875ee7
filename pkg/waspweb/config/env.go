package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// Env is the environment read by WithEnv.
type Env struct {
	Port        string `env:"PORT" env-default:"8080" env-description:"Server port"`
	Environment string `env:"ENVIRONMENT" env-default:"development" env-description:"Runtime environment"`

	DatabaseURL string `env:"DATABASE_URL" env-description:"Postgres connection string, empty or 'memory' for the in-memory repository"`
	DBSchema    string `env:"DB_SCHEMA" env-default:"public" env-description:"Postgres schema of the site tables"`

	StorageType     string `env:"STORAGE_TYPE" env-default:"memory" env-description:"Blob storage: 'memory', 'fs' or 's3'"`
	FSBaseDir       string `env:"FS_BASE_DIR" env-default:"./data/storage" env-description:"Base directory of the fs storage, one subdirectory per bucket"`
	S3Endpoint      string `env:"S3_ENDPOINT" env-description:"S3 compatible endpoint"`
	S3Region        string `env:"S3_REGION" env-default:"us-east-1" env-description:"S3 region"`
	S3PathStyle     bool   `env:"S3_USE_PATH_STYLE" env-default:"true" env-description:"Use path style S3 addressing"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-description:"S3 access key"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-description:"S3 secret key"`
	BucketScripts   string `env:"S3_BUCKET_SCRIPTS" env-default:"scripts" env-description:"Bucket of script files"`
	BucketImages    string `env:"S3_BUCKET_IMGS" env-default:"imgs" env-description:"Bucket of script images"`
	BucketPackages  string `env:"S3_BUCKET_PACKAGES" env-default:"packages" env-description:"Bucket of package releases"`

	AuthURL       string `env:"AUTH_URL" env-description:"Hosted auth service URL"`
	AuthAnonKey   string `env:"AUTH_ANON_KEY" env-description:"Hosted auth service anonymous key"`
	AuthJWTSecret string `env:"AUTH_JWT_SECRET" env-description:"Secret user access tokens are signed with"`

	AdminUser string `env:"ADMIN_USER" env-description:"Admin service account email"`
	AdminPass string `env:"ADMIN_PASS" env-description:"Admin service account password"`

	APIURL            string `env:"API_URL" env-description:"Stats and Discord API URL"`
	SiteURL           string `env:"SITE_URL" env-default:"https://waspscripts.com" env-description:"Public origin of the site"`
	AdminAPIKeySHA256 string `env:"ADMIN_API_KEY_SHA256" env-description:"SHA-256 digest of the admin API key"`
	AwaitUploads      bool   `env:"AWAIT_UPLOADS" env-default:"false" env-description:"Wait for asset uploads before answering"`
}

// WithEnv applies the process environment on top of the configuration.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env Env
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

// EnvUsage writes the description of every environment variable.
func EnvUsage(w io.Writer) {
	var env Env
	cleanenv.FUsage(w, &env, nil)()
}

func (e Env) apply(c *ServerConfig) error {
	c.Port = e.Port
	c.Environment = e.Environment
	c.DBSchema = e.DBSchema

	if err := applyDatabaseEnv(e.DatabaseURL, c); err != nil {
		return err
	}

	buckets := map[string]string{
		waspweb.BucketScripts:  e.BucketScripts,
		waspweb.BucketImages:   e.BucketImages,
		waspweb.BucketPackages: e.BucketPackages,
	}
	switch e.StorageType {
	case "", "memory":
		c.StorageType = "memory"
	case "fs":
		c.StorageType = "fs"
		c.FSBaseDir = e.FSBaseDir
		c.S3.Buckets = buckets
	case "s3":
		c.StorageType = "s3"
		c.S3 = S3Config{
			Endpoint:        e.S3Endpoint,
			Region:          e.S3Region,
			AccessKeyID:     e.AccessKeyID,
			SecretAccessKey: e.SecretAccessKey,
			UsePathStyle:    e.S3PathStyle,
			Buckets:         buckets,
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE: %s (use 'memory', 'fs' or 's3')", e.StorageType)
	}

	c.AuthURL = strings.TrimRight(e.AuthURL, "/")
	c.AuthAnonKey = e.AuthAnonKey
	c.AuthJWTSecret = e.AuthJWTSecret
	c.AdminEmail = e.AdminUser
	c.AdminPassword = e.AdminPass
	c.APIURL = strings.TrimRight(e.APIURL, "/")
	c.SiteURL = strings.TrimRight(e.SiteURL, "/")
	c.AdminAPIKeySHA256 = e.AdminAPIKeySHA256
	c.AwaitUploads = e.AwaitUploads
	return nil
}

// applyDatabaseEnv detects the database type from its URL
func applyDatabaseEnv(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "" || dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
	return nil
}
