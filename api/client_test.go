package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkowal/recall"
	"github.com/jkowal/recall/api"
)

func TestClient_SendText_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"abc","message":"In April.","sources":[]}`))
	}))
	defer srv.Close()

	client := api.New("test-token", api.WithBaseURL(srv.URL))
	resp, err := client.SendText(context.Background(), recall.SendRequest{
		Text:            "When was my trip to Kyoto?",
		TZOffsetMinutes: 120,
	})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, "When was my trip to Kyoto?", body["message"])
	assert.Equal(t, float64(120), body["timezone_offset_minutes"])
	_, hasSession := body["session_id"]
	assert.False(t, hasSession, "session_id omitted for a new conversation")

	assert.Equal(t, "abc", resp.SessionID)
	assert.Equal(t, "In April.", resp.Message)
	assert.Empty(t, resp.Sources)
}

func TestClient_SendText_IncludesSessionID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s1", body["session_id"])
		_, _ = w.Write([]byte(`{"session_id":"s1","message":"ok"}`))
	}))
	defer srv.Close()

	client := api.New("t", api.WithBaseURL(srv.URL))
	_, err := client.SendText(context.Background(), recall.SendRequest{Text: "hi", SessionID: "s1"})
	require.NoError(t, err)
}

func TestClient_SendText_ParsesSources(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"session_id": "s1",
			"message": "Here it is.",
			"sources": [
				{"context_id": "ctx_1", "source_id": "mem_1", "timestamp": "2024-04-12T09:00:00Z", "title": "Kyoto"},
				{"context_id": "ctx_2"}
			]
		}`))
	}))
	defer srv.Close()

	client := api.New("t", api.WithBaseURL(srv.URL))
	resp, err := client.SendText(context.Background(), recall.SendRequest{Text: "q"})
	require.NoError(t, err)

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "ctx_1", resp.Sources[0].ContextID)
	assert.Equal(t, "mem_1", resp.Sources[0].ItemID)
	assert.Equal(t, time.Date(2024, 4, 12, 9, 0, 0, 0, time.UTC), resp.Sources[0].CapturedAt)
	assert.True(t, resp.Sources[0].Navigable())

	assert.True(t, resp.Sources[1].CapturedAt.IsZero())
	assert.False(t, resp.Sources[1].Navigable())
}

func TestClient_SendImage_Multipart(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/messages/image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "look at this", r.FormValue("message"))
		assert.Equal(t, "s1", r.FormValue("session_id"))
		assert.Equal(t, "60", r.FormValue("timezone_offset_minutes"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 0x50}, data)

		_, _ = w.Write([]byte(`{"session_id":"s1","message":"A photo from Kyoto."}`))
	}))
	defer srv.Close()

	client := api.New("t", api.WithBaseURL(srv.URL))
	resp, err := client.SendImage(context.Background(),
		recall.SendRequest{Text: "look at this", SessionID: "s1", TZOffsetMinutes: 60},
		recall.Upload{Name: "photo.png", ContentType: "image/png", Reader: bytes.NewReader([]byte{0x89, 0x50})},
	)
	require.NoError(t, err)
	assert.Equal(t, "A photo from Kyoto.", resp.Message)
}

func TestClient_ListSessions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/chat/sessions", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": "s2", "title": "Lisbon weekend", "last_activity": "2024-06-01T10:00:00Z", "message_count": 8},
			{"id": "s1", "title": "Kyoto trip", "last_activity": "2024-04-12T09:00:00Z", "message_count": 4}
		]`))
	}))
	defer srv.Close()

	client := api.New("t", api.WithBaseURL(srv.URL))
	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)

	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID, "server order preserved")
	assert.Equal(t, "Lisbon weekend", sessions[0].Title)
	assert.Equal(t, 8, sessions[0].MessageCount)
}

func TestClient_GetSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/sessions/s1", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "s1",
			"title": "Kyoto trip",
			"messages": [
				{"id": "m1", "role": "system", "content": "You are a memory assistant."},
				{"id": "m2", "role": "user", "content": "When was my trip?", "created_at": "2024-04-12T09:00:00Z"},
				{"id": "m3", "role": "assistant", "content": "In April.", "sources": [{"context_id": "ctx_1", "source_id": "mem_1"}]}
			]
		}`))
	}))
	defer srv.Close()

	client := api.New("t", api.WithBaseURL(srv.URL))
	detail, err := client.GetSession(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", detail.ID)
	require.Len(t, detail.Messages, 3, "the client layer does not filter; hydration does")
	assert.Equal(t, recall.RoleSystem, detail.Messages[0].Role)
	require.Len(t, detail.Messages[2].Sources, 1)
	assert.Equal(t, "mem_1", detail.Messages[2].Sources[0].ItemID)
}

func TestClient_GetMemory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/memories/mem_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "mem_1", "captured_at": "2023-12-24T18:30:00Z", "media_type": "photo"}`))
	}))
	defer srv.Close()

	client := api.New("t", api.WithBaseURL(srv.URL))
	mem, err := client.GetMemory(context.Background(), "mem_1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 24, 18, 30, 0, 0, time.UTC), mem.CapturedAt)
	assert.Equal(t, "photo", mem.MediaType)
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("structured error body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
		}))
		defer srv.Close()

		client := api.New("t", api.WithBaseURL(srv.URL))
		_, err := client.SendText(context.Background(), recall.SendRequest{Text: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream unavailable")
	})

	t.Run("not found is ErrNotFound", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := api.New("t", api.WithBaseURL(srv.URL))
		_, err := client.GetMemory(context.Background(), "gone")
		assert.ErrorIs(t, err, recall.ErrNotFound)
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server notices the client disconnect;
			// with an unread body it never cancels r.Context() and the
			// deferred srv.Close() deadlocks.
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		client := api.New("t", api.WithBaseURL(srv.URL))
		_, err := client.SendText(ctx, recall.SendRequest{Text: "q"})
		assert.Error(t, err)
	})
}
