package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	cookieKeyInfo = "session-cookie-signing"
	sealKeyInfo   = "session-record-encryption"
)

// Keys holds the secrets derived from the application secret.
type Keys struct {
	Signing    []byte
	Encryption []byte
}

// DeriveKeys expands one secret into independent signing and encryption keys with HKDF-SHA256.
func DeriveKeys(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, fmt.Errorf("derive session keys: empty secret")
	}
	derive := func(info string) ([]byte, error) {
		key := make([]byte, 32)
		r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("derive %s key: %w", info, err)
		}
		return key, nil
	}

	signing, err := derive(cookieKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	encryption, err := derive(sealKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Signing: signing, Encryption: encryption}, nil
}

// sealer encrypts session records with AES-GCM before they reach the store.
type sealer struct {
	gcm cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealer{gcm: gcm}, nil
}

func (s *sealer) seal(sess *Session) (string, error) {
	plaintext, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := s.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *sealer) open(data string) (*Session, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
