package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var compress = chimw.Compress(gzip.DefaultCompression)

// GzipMiddleware распаковывает тело запроса с Content-Encoding: gzip и сжимает
// текстовые ответы для клиентов, принимающих gzip. Потоки text/event-stream не сжимаются.
func GzipMiddleware(next http.Handler) http.Handler {
	compressed := compress(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			gr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			defer gr.Close()
			r.Body = gr
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}
		compressed.ServeHTTP(w, r)
	})
}
