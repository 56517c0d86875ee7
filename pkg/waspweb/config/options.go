package config

import (
	"fmt"
	"strings"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the Postgres schema holding the site tables
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithMemoryStorage keeps every bucket in memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.StorageType = "memory"
		return nil
	}
}

// WithFilesystemStorage stores the buckets below baseDir on local disk.
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("fs base directory cannot be empty")
		}
		c.FSBaseDir = baseDir
		c.StorageType = "fs"
		return nil
	}
}

// WithS3Storage stores the buckets in S3. Bucket names not present in
// s3.Buckets keep their defaults.
func WithS3Storage(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		buckets := c.S3.Buckets
		if s3.Region == "" {
			s3.Region = c.S3.Region
		}
		for name, bucket := range s3.Buckets {
			if bucket == "" {
				return fmt.Errorf("s3 bucket name for '%s' cannot be empty", name)
			}
			buckets[name] = bucket
		}
		s3.Buckets = buckets
		c.S3 = s3
		c.StorageType = "s3"
		return nil
	}
}

// WithAuth configures the hosted auth service
func WithAuth(url, anonKey, jwtSecret string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("auth URL cannot be empty")
		}
		if jwtSecret == "" {
			return fmt.Errorf("auth JWT secret cannot be empty")
		}
		c.AuthURL = strings.TrimRight(url, "/")
		c.AuthAnonKey = anonKey
		c.AuthJWTSecret = jwtSecret
		return nil
	}
}

// WithAdminAccount sets the credentials of the admin service account
func WithAdminAccount(email, password string) Option {
	return func(c *ServerConfig) error {
		c.AdminEmail = email
		c.AdminPassword = password
		return nil
	}
}

// WithAPIURL sets the URL of the stats and Discord API
func WithAPIURL(url string) Option {
	return func(c *ServerConfig) error {
		c.APIURL = strings.TrimRight(url, "/")
		return nil
	}
}

// WithSiteURL sets the public origin of the site
func WithSiteURL(url string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("site URL cannot be empty")
		}
		c.SiteURL = strings.TrimRight(url, "/")
		return nil
	}
}

// WithAdminAPIKey sets the SHA-256 hex digest of the admin API key
func WithAdminAPIKey(sha256 string) Option {
	return func(c *ServerConfig) error {
		c.AdminAPIKeySHA256 = sha256
		return nil
	}
}

// WithAwaitUploads makes publication wait for the asset uploads
func WithAwaitUploads(await bool) Option {
	return func(c *ServerConfig) error {
		c.AwaitUploads = await
		return nil
	}
}
