package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// TokenStore persists the reference OAuthSelector's refresh token across
// process restarts.
type TokenStore interface {
	Read(ctx context.Context) (string, error)
	// Write saves token, or clears the stored value when token is "".
	Write(ctx context.Context, token string) error
}

// NewTokenStore builds the TokenStore selected by c.Storage.
func (c AuthConfig) NewTokenStore() (TokenStore, error) {
	switch c.Storage {
	case TokenStorageEnv:
		if c.EnvVar == "" {
			return nil, fmt.Errorf("auth.env_var is required for env storage")
		}
		return envTokenStore{envVar: c.EnvVar}, nil
	case TokenStorageFile:
		if c.FilePath == "" {
			return nil, fmt.Errorf("auth.file_path is required for file storage")
		}
		return fileTokenStore{path: c.FilePath}, nil
	case TokenStorageKeyring:
		if c.KeyringService == "" {
			return nil, fmt.Errorf("auth.keyring_service is required for keyring storage")
		}
		return keyringTokenStore{service: c.KeyringService, user: "refresh_token"}, nil
	default:
		return nil, fmt.Errorf("unknown token storage %q", c.Storage)
	}
}

// envTokenStore reads a refresh token from a fixed environment variable.
// Write always fails: there's no process-durable way to set another
// process's environment, so env storage is read-only by construction.
type envTokenStore struct {
	envVar string
}

func (s envTokenStore) Read(_ context.Context) (string, error) {
	token := os.Getenv(s.envVar)
	if token == "" {
		return "", fmt.Errorf("environment variable %s is not set", s.envVar)
	}
	return token, nil
}

func (envTokenStore) Write(_ context.Context, _ string) error {
	return errors.New("env token storage is read-only")
}

type fileTokenStore struct {
	path string
}

func (s fileTokenStore) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read token file %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s fileTokenStore) Write(_ context.Context, token string) error {
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", s.path, err)
	}
	return nil
}

// keyringTokenStore stores the refresh token in the OS credential manager
// via zalando/go-keyring (Keychain, Secret Service, or Credential Manager
// depending on platform).
type keyringTokenStore struct {
	service string
	user    string
}

func (s keyringTokenStore) Read(_ context.Context) (string, error) {
	token, err := keyring.Get(s.service, s.user)
	if err != nil {
		return "", fmt.Errorf("read token from keyring: %w", err)
	}
	return token, nil
}

func (s keyringTokenStore) Write(_ context.Context, token string) error {
	if token == "" {
		if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("clear token from keyring: %w", err)
		}
		return nil
	}
	if err := keyring.Set(s.service, s.user, token); err != nil {
		return fmt.Errorf("write token to keyring: %w", err)
	}
	return nil
}
