package waspweb_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/repo/memory"
	memorystorage "github.com/waspscripts/wasp-web/pkg/waspweb/storage/memory"
)

var (
	errUpstream = errors.New("upstream unavailable")
	adminID     = uuid.MustParse("4f1c2a5e-3b7d-4c8e-9f0a-1b2c3d4e5f60")
)

func signToken(exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  adminID.String(),
		"role": "authenticated",
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

// fakeAuth is an AuthClient issuing tokens that expire after ttl.
type fakeAuth struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	delay      time.Duration
	signInErr  error
	refreshErr error
	signIns    int
	refreshes  int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{ttl: time.Hour, now: time.Now}
}

func (f *fakeAuth) session() *waspweb.Session {
	return &waspweb.Session{
		AccessToken:  signToken(f.now().Add(f.ttl)),
		RefreshToken: "refresh-token",
		User:         waspweb.User{ID: adminID, Email: "admin@example.com"},
	}
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*waspweb.Session, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session(), nil
}

func (f *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) (*waspweb.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.session(), nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (f *fakeAuth) AuthorizeURL(provider, redirectTo, scopes string) (string, error) {
	return "https://auth.example.com/authorize?provider=" + provider, nil
}

func (f *fakeAuth) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signIns, f.refreshes
}

// scriptRepository fails create or update on demand and records the claims
// seen by profile operations.
type scriptRepository struct {
	*memory.Repository
	createErr   error
	updateErr   error
	revisionErr error

	mu     sync.Mutex
	claims map[string]interface{}
}

func newScriptRepository() *scriptRepository {
	return &scriptRepository{Repository: memory.New()}
}

func (r *scriptRepository) CreateScript(ctx context.Context, script *waspweb.Script) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repository.CreateScript(ctx, script)
}

func (r *scriptRepository) UpdateScript(ctx context.Context, script *waspweb.Script) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Repository.UpdateScript(ctx, script)
}

func (r *scriptRepository) SetScriptRevision(ctx context.Context, id uuid.UUID, revision int) error {
	if r.revisionErr != nil {
		return r.revisionErr
	}
	return r.Repository.SetScriptRevision(ctx, id, revision)
}

func (r *scriptRepository) GetProfile(ctx context.Context, id uuid.UUID) (*waspweb.Profile, error) {
	r.recordClaims(ctx)
	return r.Repository.GetProfile(ctx, id)
}

func (r *scriptRepository) UpdateProfileProtected(ctx context.Context, id uuid.UUID, protected waspweb.ProfileProtected) error {
	r.recordClaims(ctx)
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Repository.UpdateProfileProtected(ctx, id, protected)
}

func (r *scriptRepository) recordClaims(ctx context.Context) {
	claims, _ := waspweb.ClaimsFromContext(ctx)
	r.mu.Lock()
	r.claims = claims
	r.mu.Unlock()
}

// failingStore is a blob store whose uploads fail.
type failingStore struct {
	*memorystorage.Backend
}

func (s failingStore) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return errUpstream
}

func (s failingStore) UploadWithParams(ctx context.Context, reader io.Reader, params waspweb.UploadParams) error {
	return errUpstream
}
