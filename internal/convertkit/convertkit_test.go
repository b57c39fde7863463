package convertkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"subscription":{"id":321}}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "key", "secret", "form42")
	require.NoError(t, c.Subscribe(context.Background(), "a@b.c", "Ada"))
	assert.Equal(t, "/forms/form42/subscribe", gotPath)
	assert.Equal(t, "key", gotBody["api_key"])
	assert.Equal(t, "a@b.c", gotBody["email"])
	assert.Equal(t, "Ada", gotBody["first_name"])
}

func TestCreateAndSendAreSeparateCalls(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/broadcasts":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "secret", body["api_secret"])
			assert.Equal(t, "Weekly", body["subject"])
			w.Write([]byte(`{"broadcast":{"id":777}}`))
		case "/broadcasts/777/send":
			w.Write([]byte(`{"broadcast":{"id":777}}`))
		default:
			http.Error(w, "unexpected path", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "key", "secret", "form")

	id, err := c.CreateBroadcast(context.Background(), "Weekly", "<html></html>")
	require.NoError(t, err)
	assert.EqualValues(t, 777, id)
	// Creation alone must not send anything.
	assert.Equal(t, []string{"/broadcasts"}, paths)

	require.NoError(t, c.SendBroadcast(context.Background(), id))
	assert.Equal(t, []string{"/broadcasts", "/broadcasts/777/send"}, paths)
}

func TestCreateBroadcast_APIErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"API secret invalid"}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "key", "bad", "form")
	_, err := c.CreateBroadcast(context.Background(), "s", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API secret invalid")
}

func TestCreateBroadcast_MissingIDIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "key", "secret", "form")
	_, err := c.CreateBroadcast(context.Background(), "s", "c")
	assert.Error(t, err)
}

func TestConfigurationGates(t *testing.T) {
	unconfigured := New("", "", "")
	assert.False(t, unconfigured.IsConfigured())
	assert.Error(t, unconfigured.Subscribe(context.Background(), "a@b.c", ""))

	subscribeOnly := New("key", "", "form")
	assert.True(t, subscribeOnly.IsConfigured())
	assert.False(t, subscribeOnly.IsFullyConfigured())
	_, err := subscribeOnly.CreateBroadcast(context.Background(), "s", "c")
	assert.Error(t, err)
	assert.Error(t, subscribeOnly.SendBroadcast(context.Background(), 1))
}
