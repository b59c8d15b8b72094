package webpushinfra

import (
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// GenerateVAPIDKeys returns a fresh base64url P-256 key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
