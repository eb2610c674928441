package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
)

func TestClientProcess(t *testing.T) {
	var gotMime atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotMime.Store(r.FormValue("mime_type"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "report.docx", header.Filename)
		assert.Equal(t, "payload", string(body))

		json.NewEncoder(w).Encode(Response{Type: TypeText, Text: "extracted text"})
	}))
	defer server.Close()

	client := New(server.URL)
	resp, err := client.Process(context.Background(), []byte("payload"), "report.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)

	assert.Equal(t, TypeText, resp.Type)
	assert.Equal(t, "extracted text", resp.Text)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", gotMime.Load())
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Response{Type: TypeText, Text: "second time lucky"})
	}))
	defer server.Close()

	client := New(server.URL, WithMaxRetries(2), WithBaseDelay(time.Millisecond))
	resp, err := client.Process(context.Background(), []byte("x"), "a.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "second time lucky", resp.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientNegativeRetriesStillAttemptsOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(Response{Type: TypeText, Text: "ok"})
	}))
	defer server.Close()

	client := New(server.URL, WithMaxRetries(-5))
	resp, err := client.Process(context.Background(), []byte("x"), "a.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	_, err := client.Process(context.Background(), []byte("x"), "a.pdf", "application/pdf")
	require.Error(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestClientRejectsUnknownResponseType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{Type: "mystery"})
	}))
	defer server.Close()

	client := New(server.URL, WithMaxRetries(0))
	_, err := client.Process(context.Background(), []byte("x"), "a.pdf", "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestRemoteStrategyMapsResponses(t *testing.T) {
	tests := []struct {
		name        string
		response    Response
		wantErr     bool
		wantContent string
	}{
		{
			name:        "text response succeeds",
			response:    Response{Type: TypeText, Text: "document body from the server"},
			wantContent: "document body from the server",
		},
		{
			name:        "info response succeeds with warning",
			response:    Response{Type: TypeInfo, Message: "preview generated from document summary only"},
			wantContent: "preview generated from document summary only",
		},
		{
			name:     "error response fails",
			response: Response{Type: TypeError, Message: "corrupt file"},
			wantErr:  true,
		},
		{
			name:     "unavailable response fails",
			response: Response{Type: TypeProcessingUnavailable, Message: "converter offline"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			strategy := NewRemoteStrategy(New(server.URL, WithMaxRetries(0)), "application/pdf")
			assert.Equal(t, extract.MethodRemote, strategy.Method())

			result, err := strategy.Extract(context.Background(), []byte("blob"), "a.pdf")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, result.Succeeded)
			assert.Equal(t, tt.wantContent, result.Content)
		})
	}
}
