// Package credential finds the API key for a provider: configuration first,
// then the OS keyring, then an interactive prompt.
package credential

import (
	"errors"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const ServiceName = "gptmenu"

var ErrNoCredential = errors.New("no credential available")

// Store persists keys per provider.
type Store interface {
	Get(provider string) (string, error)
	Set(provider, apiKey string) error
	Delete(provider string) error
}

// KeyringStore keeps keys in the OS keyring under ServiceName.
type KeyringStore struct {
	service string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: ServiceName}
}

func (s *KeyringStore) Get(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	key, err := keyring.Get(s.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoCredential
	}
	return key, err
}

func (s *KeyringStore) Set(provider, apiKey string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(s.service, provider, apiKey)
}

// Delete is a no-op for providers without a stored key.
func (s *KeyringStore) Delete(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	err := keyring.Delete(s.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// MemoryStore is used when the keyring is disabled; keys last for the
// process only.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]string)}
}

func (s *MemoryStore) Get(provider string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[provider]
	if !ok {
		return "", ErrNoCredential
	}
	return key, nil
}

func (s *MemoryStore) Set(provider, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[provider] = apiKey
	return nil
}

func (s *MemoryStore) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, provider)
	return nil
}
