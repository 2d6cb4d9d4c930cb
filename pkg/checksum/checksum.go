// Package checksum implements the Paytm request-signing scheme: the sorted
// field values are hashed, salted and encrypted with the merchant key so the
// gateway can verify the request (and we can verify its callbacks).
package checksum

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

const (
	delimiter  = "|"
	saltLength = 4
	keyLength  = 16
)

// The gateway's documented algorithm uses this IV for every signature.
// It is an interoperability constant; randomness comes from the salt alone.
var blockIV = []byte("@@@@&&&&####$$$$")

var ErrKeyTooShort = errors.New("merchant key must be at least 16 bytes")

// CanonicalString renders the field set deterministically: values of the
// lexicographically sorted keys joined by the delimiter. Two callers that
// agree on the field set derive the same string regardless of map order.
func CanonicalString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, fields[k])
	}
	return strings.Join(values, delimiter)
}

// Sign produces the base64 signature for the field set under merchantKey.
func Sign(fields map[string]string, merchantKey string) (string, error) {
	salt, err := randomSalt()
	if err != nil {
		return "", err
	}
	return signWithSalt(fields, merchantKey, salt)
}

func signWithSalt(fields map[string]string, merchantKey, salt string) (string, error) {
	key, err := deriveKey(merchantKey)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(CanonicalString(fields)))
	plain := hex.EncodeToString(digest[:]) + delimiter + salt

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad([]byte(plain), block.BlockSize())
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, blockIV).CryptBlocks(encrypted, padded)

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Verify reports whether signature matches the field set under merchantKey.
// It never returns an error: the signature is untrusted input, so decoding,
// decryption and padding failures all read as "not valid".
func Verify(fields map[string]string, signature, merchantKey string) bool {
	key, err := deriveKey(merchantKey)
	if err != nil {
		return false
	}

	encrypted, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return false
	}
	if len(encrypted) == 0 || len(encrypted)%block.BlockSize() != 0 {
		return false
	}

	plain := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, blockIV).CryptBlocks(plain, encrypted)
	plain, ok := pkcs7Unpad(plain, block.BlockSize())
	if !ok {
		return false
	}

	// Layout is <hex digest>|<salt>; the salt only randomized the ciphertext.
	parts := strings.SplitN(string(plain), delimiter, 2)
	if len(parts) != 2 {
		return false
	}
	received := parts[0]

	digest := sha256.Sum256([]byte(CanonicalString(fields)))
	expected := hex.EncodeToString(digest[:])
	if len(received) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}

func deriveKey(merchantKey string) ([]byte, error) {
	if len(merchantKey) < keyLength {
		return nil, ErrKeyTooShort
	}
	return []byte(merchantKey[:keyLength]), nil
}

func randomSalt() (string, error) {
	raw := make([]byte, 3)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	// 3 random bytes encode to exactly saltLength chars, none of which can
	// collide with the delimiter.
	return base64.RawStdEncoding.EncodeToString(raw)[:saltLength], nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}
