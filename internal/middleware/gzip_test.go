package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartAddRequest struct {
	MenuID string `json:"menuId"`
}

// cartEcho отвечает JSON с позицией из запроса или, для /stream, одним событием SSE.
func cartEcho(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/stream" {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "event: snapshot\ndata: []\n\n")
		return
	}

	var req cartAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"added": req.MenuID})
}

func gzipped(t *testing.T, s string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           func(t *testing.T) io.Reader
		contentEnc     string
		acceptEnc      string
		wantStatus     int
		wantEncoding   string
		wantBodySubstr string
	}{
		{
			name:           "json response compressed for gzip client",
			path:           "/cart",
			body:           func(*testing.T) io.Reader { return strings.NewReader(`{"menuId":"m1"}`) },
			acceptEnc:      "gzip",
			wantStatus:     http.StatusOK,
			wantEncoding:   "gzip",
			wantBodySubstr: `"added":"m1"`,
		},
		{
			name:           "plain response without accept-encoding",
			path:           "/cart",
			body:           func(*testing.T) io.Reader { return strings.NewReader(`{"menuId":"m2"}`) },
			wantStatus:     http.StatusOK,
			wantBodySubstr: `"added":"m2"`,
		},
		{
			name:           "gzipped json request decoded",
			path:           "/cart",
			body:           func(t *testing.T) io.Reader { return gzipped(t, `{"menuId":"m3"}`) },
			contentEnc:     "gzip",
			wantStatus:     http.StatusOK,
			wantBodySubstr: `"added":"m3"`,
		},
		{
			name:           "event stream left uncompressed",
			path:           "/stream",
			body:           func(*testing.T) io.Reader { return http.NoBody },
			acceptEnc:      "gzip",
			wantStatus:     http.StatusOK,
			wantBodySubstr: "event: snapshot",
		},
		{
			name:       "invalid gzip request body",
			path:       "/cart",
			body:       func(*testing.T) io.Reader { return strings.NewReader(`{"menuId":"m4"}`) },
			contentEnc: "gzip",
			acceptEnc:  "gzip",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, tt.body(t))
			if tt.contentEnc != "" {
				req.Header.Set("Content-Encoding", tt.contentEnc)
			}
			if tt.acceptEnc != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEnc)
			}

			w := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(cartEcho)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			require.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))
			if tt.wantBodySubstr == "" {
				return
			}

			var body io.Reader = res.Body
			if res.Header.Get("Content-Encoding") == "gzip" {
				gr, err := gzip.NewReader(res.Body)
				require.NoError(t, err)
				defer gr.Close()
				body = gr
			}
			data, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.wantBodySubstr)
		})
	}
}
