package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MaxRequestBody предел тела запроса. Для сжатых запросов считается после распаковки.
const MaxRequestBody = 1 << 20

var gzipWriters = sync.Pool{
	New: func() any { return gzip.NewWriter(io.Discard) },
}

// compressible сжимаются только ответы с этими типами содержимого
var compressible = []string{"application/json", "text/html"}

func isCompressible(contentType string) bool {
	for _, t := range compressible {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

// gzipResponseWriter решает, сжимать ли ответ, при первой записи заголовков.
// Content-Encoding выставляется вместе со сжатием для любого статуса,
// поэтому ошибки в JSON клиент читает так же, как и успешные ответы.
type gzipResponseWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.wroteHeader {
		return
	}
	g.wroteHeader = true

	h := g.Header()
	h.Add("Vary", "Accept-Encoding")
	if statusCode != http.StatusNoContent && statusCode != http.StatusNotModified &&
		h.Get("Content-Encoding") == "" && isCompressible(h.Get("Content-Type")) {
		zw := gzipWriters.Get().(*gzip.Writer)
		zw.Reset(g.ResponseWriter)
		g.zw = zw
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
	}
	g.ResponseWriter.WriteHeader(statusCode)
}

func (g *gzipResponseWriter) Write(p []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if g.zw != nil {
		return g.zw.Write(p)
	}
	return g.ResponseWriter.Write(p)
}

// Close дописывает сжатый хвост и возвращает writer в пул
func (g *gzipResponseWriter) Close() error {
	if g.zw == nil {
		return nil
	}
	err := g.zw.Close()
	g.zw.Reset(io.Discard)
	gzipWriters.Put(g.zw)
	g.zw = nil
	return err
}

// gzipBody распакованное тело запроса. Чтение сверх MaxRequestBody
// возвращает *http.MaxBytesError.
type gzipBody struct {
	io.ReadCloser
	raw io.ReadCloser
}

func (b *gzipBody) Close() error {
	return errors.Join(b.ReadCloser.Close(), b.raw.Close())
}

func decompressBody(w http.ResponseWriter, r *http.Request) error {
	zr, err := gzip.NewReader(r.Body)
	if err != nil {
		return err
	}
	r.Body = &gzipBody{
		ReadCloser: http.MaxBytesReader(w, zr, MaxRequestBody),
		raw:        r.Body,
	}
	return nil
}

// WithGzip распаковывает запросы с Content-Encoding: gzip и сжимает
// JSON и HTML ответы для клиентов, приславших Accept-Encoding: gzip.
func WithGzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			if err := decompressBody(w, r); err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			defer r.Body.Close()
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gw := &gzipResponseWriter{ResponseWriter: w}
		defer gw.Close()
		next.ServeHTTP(gw, r)
	})
}
