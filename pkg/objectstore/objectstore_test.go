package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), Config{
		Endpoint:  srv.URL,
		Bucket:    "attachments",
		AccessKey: "test",
		SecretKey: "test",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store, srv
}

func TestNew_MissingBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNew_UnreachableBucket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(context.Background(), Config{Endpoint: srv.URL, Bucket: "missing", Region: "us-east-1", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}

func TestDeleteObjects_Success(t *testing.T) {
	var deleted []string
	store, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	err := store.DeleteObjects(context.Background(), []string{"k1", "k2"})
	require.NoError(t, err)
	assert.Len(t, deleted, 2)
}

func TestDeleteObjects_ReturnsFirstErrorButAttemptsAll(t *testing.T) {
	var deleted []string
	store, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	err := store.DeleteObjects(context.Background(), []string{"k1", "k2"})
	assert.Error(t, err)
	assert.Len(t, deleted, 2)
}

func TestHealthy(t *testing.T) {
	store, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, store.Healthy(context.Background()))
}
