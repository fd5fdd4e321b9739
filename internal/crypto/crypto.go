// Package crypto holds the node's cryptographic primitives: SHA-512
// digests, RSA-PSS signing/verification, and hex encoding of fixed-width
// byte strings. These wrap the standard library directly; no third-party
// library in the example pack supplies RSA-PSS or an alternative to
// crypto/sha512, and spec mandates both by name.
package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// Digest returns the SHA-512 hash of data.
func Digest(data []byte) [64]byte {
	return sha512.Sum512(data)
}

// HexEncode renders a byte slice as lower-case hex with no prefix.
func HexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// HexDecodeFixed decodes a hex string and requires it to be exactly n bytes
// wide.
func HexDecodeFixed(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("expected %d bytes, got %d", n, len(b))
	}
	return b, nil
}

// SignPSS signs message's SHA-512 digest with RSA-PSS. crypto/rsa's signing
// path blinds the private-key operation against timing attacks.
func SignPSS(priv *rsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha512.Sum512(message)
	signature, err := rsa.SignPSS(rand.Reader, priv, stdcrypto.SHA512, digest[:], nil)
	if err != nil {
		return nil, fmt.Errorf("sign RSA-PSS: %w", err)
	}
	return signature, nil
}

// VerifyPSS reports whether signature is a valid RSA-PSS/SHA-512 signature
// over message under pub. It returns true iff verification succeeds.
func VerifyPSS(pub *rsa.PublicKey, message []byte, signature []byte) bool {
	if pub == nil || len(signature) == 0 {
		return false
	}
	digest := sha512.Sum512(message)
	return rsa.VerifyPSS(pub, stdcrypto.SHA512, digest[:], signature, nil) == nil
}
