package middlewarectx

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/paymentgateway"
)

const maxCallbackBody = 1 << 20

// CallbackSignature проверяет подпись уведомления платёжного шлюза.
// При пустом secret проверка отключена.
func CallbackSignature(secret string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
			if err != nil {
				response.Fail(w, r, http.StatusBadRequest, "invalid request body")
				return
			}
			if !paymentgateway.VerifySignature(secret, body, r.Header.Get(paymentgateway.SignatureHeader)) {
				log.Warn("payment callback signature mismatch", slog.String("remote_addr", r.RemoteAddr))
				response.Fail(w, r, http.StatusUnauthorized, "invalid signature")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
