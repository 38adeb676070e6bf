package middlewares

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dropDatabas3/cadenza/internal/observability/logger"
)

// RequestLogger inyecta un logger "scoped" con campos del request en el
// contexto y loguea el resultado al terminar. Los handlers downstream lo
// recuperan con logger.From(ctx).
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		l := logger.L().With(
			logger.RequestID(chimw.GetReqID(r.Context())),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
		ctx := logger.ToContext(r.Context(), l)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		l.Info("request served",
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
