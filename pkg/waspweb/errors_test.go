package waspweb_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

func TestFailure_Status(t *testing.T) {
	tests := []struct {
		failure *waspweb.Failure
		status  int
	}{
		{waspweb.Validation("bad"), http.StatusBadRequest},
		{waspweb.Upstream("down", errUpstream), http.StatusInternalServerError},
		{waspweb.NotFound("gone", nil), http.StatusNotFound},
		{waspweb.Forbidden(errUpstream), http.StatusForbidden},
		{&waspweb.Failure{Kind: "other"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.failure.Status(), string(tt.failure.Kind))
	}
}

func TestFailure_Messages(t *testing.T) {
	f := waspweb.Validation("Script file is missing!")
	assert.Equal(t, "validation: Script file is missing!", f.Error())
	assert.Equal(t, "Script file is missing!", f.UserMessage())

	f = waspweb.Forbidden(errUpstream)
	assert.Equal(t, "forbidden: "+errUpstream.Error(), f.Error())
	assert.Equal(t, errUpstream.Error(), f.UserMessage())

	f = &waspweb.Failure{Kind: waspweb.KindNotFound}
	assert.Equal(t, "notFound", f.Error())
	assert.Equal(t, http.StatusText(http.StatusNotFound), f.UserMessage())
}

func TestAsFailure(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", waspweb.NotFound("Script not found!", waspweb.ErrScriptNotFound))

	f, ok := waspweb.AsFailure(wrapped)
	require.True(t, ok)
	assert.Equal(t, waspweb.KindNotFound, f.Kind)
	assert.ErrorIs(t, wrapped, waspweb.ErrScriptNotFound)

	_, ok = waspweb.AsFailure(errors.New("plain"))
	assert.False(t, ok)
}

func TestTypedErrors(t *testing.T) {
	id := uuid.New()
	err := &waspweb.ScriptError{ScriptID: id, Op: "update", Err: errUpstream}
	assert.ErrorIs(t, err, errUpstream)
	assert.Contains(t, err.Error(), id.String())

	serr := &waspweb.StorageError{Bucket: "imgs", Key: "a", Op: "upload", Err: waspweb.ErrObjectNotFound}
	assert.ErrorIs(t, serr, waspweb.ErrObjectNotFound)
	assert.Contains(t, serr.Error(), "imgs")
}
