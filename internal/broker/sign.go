package broker

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

type Param struct {
	Key   string
	Value string
}

// Params keeps request parameters in insertion order; the signature covers
// exactly that order.
type Params []Param

func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

func (p Params) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String()
}

// Sign returns the hex HMAC-SHA256 of query keyed by secret.
func Sign(secret, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// Signed returns the encoded params with the signature appended.
func (p Params) Signed(secret string) string {
	query := p.Encode()
	return query + "&signature=" + Sign(secret, query)
}
