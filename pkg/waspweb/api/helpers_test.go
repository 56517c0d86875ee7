package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
	"github.com/waspscripts/wasp-web/pkg/waspweb/pages"
	"github.com/waspscripts/wasp-web/pkg/waspweb/repo/memory"
	memorystorage "github.com/waspscripts/wasp-web/pkg/waspweb/storage/memory"
)

var errUpstream = errors.New("upstream down")

const testSecret = "test-jwt-secret"

type fakeAuth struct {
	mu           sync.Mutex
	authorizeErr error
	signOutErr   error
	signedOut    []string
	adminToken   string
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*waspweb.Session, error) {
	return &waspweb.Session{AccessToken: f.adminToken, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) (*waspweb.Session, error) {
	return nil, waspweb.ErrNoSession
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.signedOut = append(f.signedOut, accessToken)
	return nil
}

func (f *fakeAuth) AuthorizeURL(provider, redirectTo, scopes string) (string, error) {
	if f.authorizeErr != nil {
		return "", f.authorizeErr
	}
	q := url.Values{"provider": {provider}, "redirect_to": {redirectTo}, "scopes": {scopes}}
	return "https://auth.example.com/authorize?" + q.Encode(), nil
}

type fakeRefresher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeRefresher) Refresh(ctx context.Context, discordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, discordID)
	return f.err
}

type testServer struct {
	router    chi.Router
	repo      *memory.Repository
	scripts   *memorystorage.Backend
	images    *memorystorage.Backend
	packages  *memorystorage.Backend
	auth      *fakeAuth
	refresher *fakeRefresher
	tokenAuth *jwtauth.JWTAuth
}

func setupTest(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		repo:      memory.New(),
		scripts:   memorystorage.New(),
		images:    memorystorage.New(),
		packages:  memorystorage.New(),
		refresher: &fakeRefresher{},
		tokenAuth: NewTokenAuth(testSecret),
	}
	ts.auth = &fakeAuth{adminToken: ts.token(t, uuid.New())}

	uploader := waspweb.NewUploader(
		waspweb.WithBucket(waspweb.BucketScripts, ts.scripts),
		waspweb.WithBucket(waspweb.BucketImages, ts.images),
		waspweb.WithBucket(waspweb.BucketPackages, ts.packages),
	)
	publisher, err := waspweb.NewPublisher(ts.repo, uploader, waspweb.WithAwaitUploads(true))
	require.NoError(t, err)

	assembler := pages.New(ts.repo, pages.WithPackageStore(ts.packages))
	session := waspweb.NewAdminSession(ts.auth, waspweb.Credentials{Email: "admin@example.com", Password: "secret"})

	r := chi.NewRouter()
	r.Use(Verifier(ts.tokenAuth))
	r.Mount("/auth", NewAuthHandler(ts.auth, ts.repo,
		WithSiteURL("https://waspscripts.com"),
		WithDiscordRefresher(ts.refresher),
	).Routes())
	r.Mount("/scripts", NewScriptsHandler(publisher, ts.repo).Routes())
	r.Mount("/admin/profiles", NewProfilesHandler(waspweb.NewAdminProfiles(session, ts.repo)).Routes())
	r.Mount("/", NewPagesHandler(assembler).Routes())
	ts.router = r
	return ts
}

func (ts *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	_, token, err := ts.tokenAuth.Encode(map[string]interface{}{
		"sub":  userID.String(),
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type formFileField struct {
	field, name, contentType, data string
}

func multipartBody(t *testing.T, script string, files ...formFileField) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("script", script))
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
