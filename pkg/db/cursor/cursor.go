package cursor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidFormat    = errors.New("invalid cursor format")
	ErrInvalidSignature = errors.New("invalid cursor signature")
)

type CursorData struct {
	Datetime string `json:"datetime"`
	ID       int64  `json:"id,omitempty"`
}

// Codec signs cursors so clients cannot forge positions.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) hmacSignature(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Codec) verifySignature(encoded string, signature string) bool {
	expectedSignature := c.hmacSignature(encoded)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

func (c *Codec) Encode(date string, id int64) string {
	data := CursorData{Datetime: date, ID: id}
	jsonData, _ := json.Marshal(data)
	encoded := base64.RawURLEncoding.EncodeToString(jsonData)

	return encoded + "." + c.hmacSignature(encoded)
}

func (c *Codec) Decode(token string) (string, int64, error) {
	parts := strings.Split(token, ".")

	if len(parts) != 2 {
		return "", 0, ErrInvalidFormat
	}

	if !c.verifySignature(parts[0], parts[1]) {
		return "", 0, ErrInvalidSignature
	}

	decoded, err := base64.RawURLEncoding.DecodeString(parts[0])

	if err != nil {
		return "", 0, err
	}

	var cursor CursorData
	if err := json.Unmarshal(decoded, &cursor); err != nil {
		return "", 0, ErrInvalidFormat
	}

	return cursor.Datetime, cursor.ID, nil
}
