// Package secrets keeps provider API keys out of plain-text config.
//
// A per-user file (0600) holds AES-GCM sealed values keyed by provider.
// This is not a replacement for an OS keychain, but it gives the same
// surface the app needs: store, fetch, delete, and "not found" when a
// stored key is missing or empty.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const keyFileName = "keys.json"

// ErrKeyNotFound reports that no usable key is stored for a provider.
// An empty or whitespace-only stored value counts as not found.
var ErrKeyNotFound = errors.New("api key not found")

type keyFile struct {
	Keys map[string]string `json:"keys"` // provider -> base64(sealed)
}

// StoreAPIKey seals and persists key under provider.
func StoreAPIKey(provider, key string) error {
	provider = norm(provider)
	if provider == "" {
		return fmt.Errorf("provider required")
	}
	path, err := filePath()
	if err != nil {
		return err
	}
	kf, _ := load(path)
	if kf.Keys == nil {
		kf.Keys = map[string]string{}
	}
	sealed, err := seal([]byte(key))
	if err != nil {
		return err
	}
	kf.Keys[provider] = base64.StdEncoding.EncodeToString(sealed)
	return save(path, kf)
}

// FetchAPIKey returns the stored key for provider, trimmed.
func FetchAPIKey(provider string) (string, error) {
	provider = norm(provider)
	if provider == "" {
		return "", fmt.Errorf("provider required")
	}
	path, err := filePath()
	if err != nil {
		return "", err
	}
	kf, err := load(path)
	if err != nil {
		return "", err
	}
	enc, ok := kf.Keys[provider]
	if !ok {
		return "", ErrKeyNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", err
	}
	plain, err := open(raw)
	if err != nil {
		return "", err
	}
	key := strings.TrimSpace(string(plain))
	if key == "" {
		return "", ErrKeyNotFound
	}
	return key, nil
}

// DeleteAPIKey removes the stored key; absent providers are a no-op.
func DeleteAPIKey(provider string) error {
	provider = norm(provider)
	if provider == "" {
		return fmt.Errorf("provider required")
	}
	path, err := filePath()
	if err != nil {
		return err
	}
	kf, err := load(path)
	if err != nil {
		return err
	}
	if kf.Keys == nil {
		return nil
	}
	delete(kf.Keys, provider)
	return save(path, kf)
}

func filePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "bananaslice")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, keyFileName), nil
}

func load(path string) (keyFile, error) {
	var kf keyFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return keyFile{}, nil
		}
		return kf, err
	}
	if err := json.Unmarshal(data, &kf); err != nil {
		return kf, err
	}
	return kf, nil
}

func save(path string, kf keyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// sealKey ties the sealed file to this user on this machine.
func sealKey() []byte {
	host, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	sum := sha256.Sum256([]byte("bananaslice-" + runtime.GOOS + "-" + host + "-" + user))
	return sum[:]
}

func seal(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(sealKey())
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func open(sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(sealKey())
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed value too short")
	}
	nonce := sealed[:gcm.NonceSize()]
	body := sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
