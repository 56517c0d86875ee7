package waspweb

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for a single storage bucket
type BlobStore interface {
	// Upload uploads content directly, overwriting any existing object
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// List returns metadata for every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// ScriptQuery selects a page of a developer's scripts.
type ScriptQuery struct {
	AuthorID uuid.UUID
	// Search is matched case-insensitively against the script search column.
	Search string
	Offset int
	Limit  int
}

// StatsQuery selects a page of the stats leaderboard. When UserID is set only
// that user's row is returned; otherwise when Text is set a full text search
// on the username is performed; otherwise users with any experience or gold
// are listed, ordered and paged.
type StatsQuery struct {
	UserID    *uuid.UUID
	Text      string
	Order     string
	Ascending bool
	Offset    int
	Limit     int
}

// ScriptRepository persists scripts and their reference tables.
type ScriptRepository interface {
	// CreateScript inserts the public row and its protected row (revision 1,
	// author) and assigns script.ID.
	CreateScript(ctx context.Context, script *Script) error
	UpdateScript(ctx context.Context, script *Script) error
	SetScriptRevision(ctx context.Context, id uuid.UUID, revision int) error
	GetScript(ctx context.Context, id uuid.UUID) (*Script, error)
	ListScripts(ctx context.Context, q ScriptQuery) ([]*Script, error)
	CountScripts(ctx context.Context, q ScriptQuery) (int, error)
	ListScriptCards(ctx context.Context) ([]ScriptCard, error)

	ListCategories(ctx context.Context) ([]Category, error)
	ListSubCategories(ctx context.Context) ([]SubCategory, error)
}

// DeveloperRepository reads developer pages.
type DeveloperRepository interface {
	GetDeveloper(ctx context.Context, username string) (*Developer, error)
	GetDeveloperByID(ctx context.Context, id uuid.UUID) (*Developer, error)
	ListDevelopers(ctx context.Context) ([]Developer, error)
}

// ProfileRepository reads and writes profiles. Callers are expected to run it
// with admin claims attached to ctx.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateProfileProtected(ctx context.Context, id uuid.UUID, protected ProfileProtected) error
}

// StatsRepository reads the stats leaderboard.
type StatsRepository interface {
	ListStats(ctx context.Context, q StatsQuery) ([]Stat, error)
	CountStats(ctx context.Context, q StatsQuery) (int, error)
	// StatsTotal returns the result of the get_stats_total aggregate.
	StatsTotal(ctx context.Context) (Stat, error)
}

// TutorialRepository reads tutorials.
type TutorialRepository interface {
	GetTutorial(ctx context.Context, slug string) (*Tutorial, error)
	ListTutorials(ctx context.Context) ([]Tutorial, error)
}

// PackageRepository reads packages.
type PackageRepository interface {
	GetPackage(ctx context.Context, name string) (*Package, error)
}

// Repository is the full set of repositories backing the site.
type Repository interface {
	ScriptRepository
	DeveloperRepository
	ProfileRepository
	StatsRepository
	TutorialRepository
	PackageRepository
}

// AuthClient talks to the hosted authentication service.
type AuthClient interface {
	// SignInWithPassword signs in with email and password credentials.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// RefreshSession exchanges a refresh token for a new session.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut revokes the session identified by the access token.
	SignOut(ctx context.Context, accessToken string) error

	// AuthorizeURL returns the OAuth authorize URL to redirect the browser to.
	AuthorizeURL(provider, redirectTo, scopes string) (string, error)
}
