package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// RequestKeySize is the length in bytes of a derived request key (AES-256).
const RequestKeySize = 32

// requestKeyIterations is the PBKDF2 round count. Both sides of the
// handshake must use the same value or the sealed code never opens.
const requestKeyIterations = 600_000

// errOpenFailed is returned for every Open failure so callers cannot tell
// a wrong key from a tampered payload.
var errOpenFailed = errors.New("cannot decrypt payload")

func canonical(parts ...string) []byte {
	return []byte(strings.Join(parts, "\n"))
}

// DeriveRequestKey derives the symmetric key protecting one handshake.
//
// The key is PBKDF2-HMAC-SHA256 over the newline-joined identity strings,
// salted with the per-attempt date nonce. The same inputs always yield the
// same RequestKeySize-byte key, which is what lets both ends derive it
// independently: the nonce travels in the initiation request while the
// identity strings are known to each side, so no key material ever crosses
// the network.
func DeriveRequestKey(username, email, connectionName, dateNonce string) []byte {
	secret := canonical(username, email, connectionName)
	return pbkdf2.Key(secret, []byte(dateNonce), requestKeyIterations, RequestKeySize, sha256.New)
}

// RequestFingerprint returns the hex-encoded SHA-256 fingerprint submitted at
// initiation in place of the raw identity values.
func RequestFingerprint(username, email, dateNonce, connectionName string) string {
	sum := sha256.Sum256(canonical(username, email, dateNonce, connectionName))
	return hex.EncodeToString(sum[:])
}

// SyncID returns the hex-encoded one-way hash binding a request id and its
// one-time code. It is safe to persist and transmit; the inputs are not
// recoverable from it.
func SyncID(requestID, oneTimeCode string) string {
	sum := sha256.Sum256(canonical(requestID, oneTimeCode))
	return hex.EncodeToString(sum[:])
}

// Seal encrypts plaintext with AES-GCM under key and returns a single blob
// laid out as nonce‖ciphertext‖tag.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A fresh
// random nonce is generated per call, so sealing the same plaintext twice
// yields different blobs.
func Seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return append(nonce, ciphertext...), nil
}

// Open decrypts a blob produced by Seal and returns the plaintext.
//
// Any failure (wrong key, truncated blob, bit flips anywhere in the nonce,
// ciphertext, or tag) yields the same error value, so the caller learns
// nothing about which part was at fault.
func Open(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errOpenFailed
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errOpenFailed
	}

	if len(blob) < aesgcm.NonceSize() {
		return nil, errOpenFailed
	}
	nonce, ciphertext := blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errOpenFailed
	}
	return plaintext, nil
}
