package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const orderNumberCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newOrderNumber generates a unique human-readable order number,
// ORD-<unix-millis>-<6 random chars>
func newOrderNumber() (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(orderNumberCharset)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = orderNumberCharset[n.Int64()]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix), nil
}

// newDownloadToken generates a 32-byte random token, hex encoded
func newDownloadToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
