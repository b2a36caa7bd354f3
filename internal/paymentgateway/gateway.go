// Package paymentgateway формирует ссылки на оплату для поддерживаемых
// способов и проверяет подпись уведомлений шлюза.
package paymentgateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

// SignatureHeader заголовок с подписью тела уведомления.
const SignatureHeader = "X-Callback-Signature"

var methodPaths = map[models.PaymentMethod]string{
	models.PaymentEcocash:      "ecocash",
	models.PaymentOneMoney:     "onemoney",
	models.PaymentOmari:        "omari",
	models.PaymentBankCard:     "card",
	models.PaymentBankTransfer: "transfer",
}

// Gateway строит адреса страниц оплаты.
type Gateway struct {
	baseURL string
}

// New создаёт шлюз с базовым адресом страниц оплаты.
func New(baseURL string) *Gateway {
	return &Gateway{baseURL: strings.TrimRight(baseURL, "/")}
}

// RedirectURL возвращает адрес, на который нужно отправить пользователя для оплаты.
func (g *Gateway) RedirectURL(method models.PaymentMethod, transactionID string) (string, error) {
	const op = "paymentgateway.RedirectURL"

	path, ok := methodPaths[method]
	if !ok {
		return "", fmt.Errorf("%s: %w: %s", op, models.ErrUnsupportedMethod, method)
	}
	return fmt.Sprintf("%s/payments/%s/%s", g.baseURL, path, transactionID), nil
}

// Sign вычисляет base64(HMAC-SHA256(secret, body)).
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature сравнивает подпись за постоянное время.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
