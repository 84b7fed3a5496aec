package formstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNew_AuthenticatesOnBootstrap(t *testing.T) {
	var authCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/collections/_superusers/auth-with-password" {
			atomic.AddInt32(&authCalls, 1)
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(context.Background(), Config{URL: srv.URL, Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&authCalls))
}

func TestNew_AuthFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(context.Background(), Config{URL: srv.URL, Email: "a@b.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestGetForm_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collections/_superusers/auth-with-password":
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
		case "/api/collections/forms/records/F1":
			writeJSON(w, http.StatusOK, pbFormRecord{
				ID: "F1", AllowDuplicates: true,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{URL: srv.URL, Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	form, err := client.GetForm(context.Background(), "F1")
	require.NoError(t, err)
	assert.Equal(t, "F1", form.ID)
	assert.True(t, form.AllowDuplicates)
}

func TestGetForm_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collections/_superusers/auth-with-password":
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{URL: srv.URL, Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	_, err = client.GetForm(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrFormNotFound)
}

func TestGetForm_ReauthenticatesOn401(t *testing.T) {
	var tokenSeq int32
	var sawStaleToken bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collections/_superusers/auth-with-password":
			n := atomic.AddInt32(&tokenSeq, 1)
			writeJSON(w, http.StatusOK, map[string]string{"token": fmt.Sprintf("tok-%d", n)})
		case "/api/collections/forms/records/F1":
			if r.Header.Get("Authorization") == "tok-1" {
				sawStaleToken = true
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, pbFormRecord{ID: "F1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{URL: srv.URL, Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	form, err := client.GetForm(context.Background(), "F1")
	require.NoError(t, err)
	assert.Equal(t, "F1", form.ID)
	assert.True(t, sawStaleToken)
}

func TestGetTemplate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collections/_superusers/auth-with-password":
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
		case "/api/collections/templates/records/T1":
			writeJSON(w, http.StatusOK, pbTemplateRecord{ID: "T1", Subject: "Hi {{ name }}", HTMLBody: "<p>{{ name }}</p>"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{URL: srv.URL, Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	tmpl, err := client.GetTemplate(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "Hi {{ name }}", tmpl.Subject)
}
