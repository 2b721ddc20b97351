package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mihklz/casetrail/internal/crypto"
)

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	})
}

func TestWithHashValidation(t *testing.T) {
	const key = "secret"
	body := `{"originator":"wf-42"}`

	tests := []struct {
		name       string
		key        string
		signature  string
		wantStatus int
	}{
		{name: "no key configured", key: "", wantStatus: http.StatusAccepted},
		{name: "valid signature", key: key, signature: crypto.CalculateHMAC([]byte(body), key), wantStatus: http.StatusAccepted},
		{name: "invalid signature", key: key, signature: "deadbeef", wantStatus: http.StatusBadRequest},
		{name: "missing signature", key: key, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/publish/x", strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set(crypto.SignatureHeader, tt.signature)
			}
			w := httptest.NewRecorder()

			WithHashValidation(tt.key)(echoHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusAccepted {
				assert.Equal(t, body, w.Body.String(), "body must be restored for the next handler")
			}
		})
	}
}

func TestWithGzip_DecompressesRequest(t *testing.T) {
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write([]byte(`{"originator":"wf-42"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/publish/x", &compressed)
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()

	WithGzip(echoHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, `{"originator":"wf-42"}`, w.Body.String())
}

func TestWithGzip_CompressesJSONResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/publish/x", strings.NewReader(`{"status":"accepted"}`))
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	WithGzip(echoHandler()).ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"accepted"}`, string(out))
}

func TestWithGzip_InvalidCompressedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/publish/x", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()

	WithGzip(echoHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func gzipBytes(t *testing.T, p []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(p)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return &buf
}

func TestWithGzip_LimitsDecompressedBody(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "at limit", size: MaxRequestBody},
		{name: "over limit", size: MaxRequestBody + 1, wantErr: true},
		{name: "far over limit", size: 16 * MaxRequestBody, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := gzipBytes(t, bytes.Repeat([]byte("a"), tt.size))
			require.Less(t, compressed.Len(), MaxRequestBody, "payload must be small on the wire")

			var (
				read    int
				readErr error
			)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, err := io.ReadAll(r.Body)
				read, readErr = len(b), err
				w.WriteHeader(http.StatusAccepted)
			})

			req := httptest.NewRequest(http.MethodPost, "/publish/x", compressed)
			req.Header.Set("Content-Encoding", "gzip")
			WithGzip(next).ServeHTTP(httptest.NewRecorder(), req)

			if !tt.wantErr {
				require.NoError(t, readErr)
				assert.Equal(t, tt.size, read)
				return
			}
			var tooLarge *http.MaxBytesError
			require.ErrorAs(t, readErr, &tooLarge)
			assert.LessOrEqual(t, read, MaxRequestBody)
		})
	}
}

func TestWithGzipAndHash_OversizedBodyIs413(t *testing.T) {
	compressed := gzipBytes(t, bytes.Repeat([]byte("a"), 4*MaxRequestBody))

	req := httptest.NewRequest(http.MethodPost, "/publish/x", compressed)
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()

	WithGzip(WithHashValidation("secret")(echoHandler())).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestWithGzip_CompressesErrorResponse(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown channel"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/publish/x", strings.NewReader(`{}`))
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	WithGzip(next).ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"unknown channel"}`, string(out))
}

func TestWithGzip_LeavesPlainTextUncompressed(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong"))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	WithGzip(next).ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "pong", w.Body.String())
}
