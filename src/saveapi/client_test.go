package saveapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePostsQuery(t *testing.T) {
	var got Request
	var gotID, gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	err := c.Save(context.Background(), "some selected text", "proj-1", "req-42")
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, Request{Query: "some selected text", ProjectID: "proj-1", Save: true}, got)
}

func TestSaveValidationMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)

	err := c.Save(context.Background(), "   ", "proj", "")
	assert.ErrorIs(t, err, ErrEmpty)

	err = c.Save(context.Background(), "hello world", "", "")
	assert.ErrorIs(t, err, ErrNoProject)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindNoProject, se.Kind)

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestSaveNon2xxIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).Save(context.Background(), "hello world", "p", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrEmpty)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestSaveUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, time.Second).Save(context.Background(), "hello world", "p", "")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestSaveHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := New(srv.URL, 5*time.Second).Save(ctx, "hello world", "p", "")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Empty", KindEmpty.String())
	assert.Equal(t, "NoProject", KindNoProject.String())
	assert.Equal(t, "NetworkError", KindNetwork.String())
}
