package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const minRSABits = 2048

// GenerateRSAKey creates a new signing key. Sizes below 2048 bits are rejected.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	if bits < minRSABits {
		return nil, fmt.Errorf("rsa key size %d below minimum %d", bits, minRSABits)
	}
	return rsa.GenerateKey(rand.Reader, bits)
}

func EncodePrivateKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// LoadKeyPair reads the PEM key pair. The public key is derived from the
// private key when publicPath is empty or missing. With generate set, a
// missing private key is created and written to disk together with its public half.
func LoadKeyPair(privatePath, publicPath string, generate bool) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if errors.Is(err, fs.ErrNotExist) && generate {
		return generateKeyFiles(privatePath, publicPath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read private key: %w", err)
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}

	if publicPath == "" {
		return private, &private.PublicKey, nil
	}
	publicPEM, err := os.ReadFile(publicPath)
	if errors.Is(err, fs.ErrNotExist) {
		return private, &private.PublicKey, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read public key: %w", err)
	}

	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key: %w", err)
	}
	if !public.Equal(&private.PublicKey) {
		return nil, nil, errors.New("public key does not match private key")
	}
	return private, public, nil
}

func generateKeyFiles(privatePath, publicPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	zap.L().Warn("Signing key not found, generating a new RSA key pair",
		zap.String("private_key_path", privatePath),
		zap.String("public_key_path", publicPath))

	key, err := GenerateRSAKey(minRSABits)
	if err != nil {
		return nil, nil, err
	}
	if err := writeKeyFile(privatePath, EncodePrivateKeyPEM(key), 0o600); err != nil {
		return nil, nil, err
	}

	if publicPath != "" {
		publicPEM, err := EncodePublicKeyPEM(&key.PublicKey)
		if err != nil {
			return nil, nil, err
		}
		if err := writeKeyFile(publicPath, publicPEM, 0o644); err != nil {
			return nil, nil, err
		}
	}
	return key, &key.PublicKey, nil
}

func writeKeyFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
