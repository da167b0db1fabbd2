package middlewares

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/aleex825/budgetwise-backend/internal/logger"
)

// TxMiddleware scopes one database transaction to each request.
//
// The transaction is committed when the handler answers with a status below 400
// and rolled back otherwise, including when the handler panics. The response is
// buffered so that a failed commit can still be reported as 500. Functions
// registered with AfterCommit run after a successful commit, once the
// connection is back in the pool, and before the response is written.
func TxMiddleware(db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx, err := db.BeginTxx(context.WithoutCancel(r.Context()), nil)
			if err != nil {
				logger.FromContext(r.Context()).Errorw("failed to begin transaction", "error", err)
				writeInternalError(w)
				return
			}

			committed := false
			defer func() {
				if committed {
					return
				}
				if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
					logger.FromContext(r.Context()).Errorw("failed to rollback transaction", "error", err)
				}
			}()

			hooks := &commitHooks{}
			ctx := context.WithValue(setTxToContext(r.Context(), tx), hooksKey, hooks)

			bw := &bufferedResponseWriter{header: w.Header(), statusCode: http.StatusOK}
			next.ServeHTTP(bw, r.WithContext(ctx))

			if bw.statusCode < http.StatusBadRequest {
				if err := tx.Commit(); err != nil {
					logger.FromContext(r.Context()).Errorw("failed to commit transaction", "error", err)
					w.Header().Del("Content-Length")
					writeInternalError(w)
					return
				}
				committed = true
				hooks.run()
			}

			w.WriteHeader(bw.statusCode)
			_, _ = w.Write(bw.body.Bytes())
		})
	}
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
}

// bufferedResponseWriter holds the response until the transaction outcome is known.
// Headers are written straight to the underlying writer's header map.
type bufferedResponseWriter struct {
	header      http.Header
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func (bw *bufferedResponseWriter) Header() http.Header {
	return bw.header
}

func (bw *bufferedResponseWriter) WriteHeader(code int) {
	if bw.wroteHeader {
		return
	}
	bw.statusCode = code
	bw.wroteHeader = true
}

func (bw *bufferedResponseWriter) Write(b []byte) (int, error) {
	bw.wroteHeader = true
	return bw.body.Write(b)
}

// contextKey is an unexported type for keys in context
type contextKey struct{ name string }

var (
	txKey    = contextKey{"tx"}
	hooksKey = contextKey{"after_commit"}
)

type commitHooks struct {
	fns []func()
}

func (h *commitHooks) run() {
	for _, fn := range h.fns {
		fn()
	}
}

// AfterCommit defers fn until the request transaction in ctx commits; it is
// dropped if the transaction rolls back. Without a transaction fn runs at once.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(hooksKey).(*commitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn()
}

// setTxToContext stores a transaction in the context
func setTxToContext(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTxFromContext retrieves the transaction from the context. Returns nil if not present.
func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}
