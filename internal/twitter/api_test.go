package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := NewAPI("ck", "cs", WithBaseURL(srv.URL))
	return api.Session("tk", "ts")
}

func TestSearch_DecodesNewestFirst(t *testing.T) {
	var gotQuery, gotSince string
	client := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/tweets.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotSince = r.URL.Query().Get("since_id")
		w.Write([]byte(`{"statuses":[
			{"id":5,"text":"hi","user":{"screen_name":"bob"}},
			{"id":3,"text":"yo","user":{"screen_name":"alice"}}
		]}`))
	}))

	matches, err := client.Search(context.Background(), "golang", 2)
	require.NoError(t, err)

	assert.Equal(t, "golang", gotQuery)
	assert.Equal(t, "2", gotSince)
	require.Len(t, matches, 2)
	// Platform order is newest-first; the client must not reorder
	assert.Equal(t, Match{ID: 5, Author: "bob", Text: "hi"}, matches[0])
	assert.Equal(t, Match{ID: 3, Author: "alice", Text: "yo"}, matches[1])
}

func TestSearch_OmitsZeroSinceID(t *testing.T) {
	client := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since_id"))
		w.Write([]byte(`{"statuses":[]}`))
	}))

	matches, err := client.Search(context.Background(), "golang", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_ErrorOnBadStatus(t *testing.T) {
	client := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))

	_, err := client.Search(context.Background(), "golang", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestVerifySession(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "valid", status: http.StatusOK, want: true},
		{name: "revoked", status: http.StatusUnauthorized, want: false},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/account/verify_credentials.json", r.URL.Path)
				w.WriteHeader(tt.status)
			}))

			ok, err := client.VerifySession(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPostReply_SendsThreadedStatus(t *testing.T) {
	var gotStatus, gotReplyTo string
	client := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/statuses/update.json", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotStatus = r.PostForm.Get("status")
		gotReplyTo = r.PostForm.Get("in_reply_to_status_id")
	}))

	err := client.PostReply(context.Background(), "@bob hello", 42)
	require.NoError(t, err)
	assert.Equal(t, "@bob hello", gotStatus)
	assert.Equal(t, "42", gotReplyTo)
}

func TestPostReply_ErrorOnBadStatus(t *testing.T) {
	client := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate status", http.StatusForbidden)
	}))

	err := client.PostReply(context.Background(), "@bob hello", 42)
	require.Error(t, err)
}
