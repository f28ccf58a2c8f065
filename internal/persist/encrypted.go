package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
)

const snapshotDescriptor = "codepane-snapshot"

// EncryptedKV encrypts values before they reach the wrapped store. The data
// key is derived from a root key held in a kryptograf key store file.
type EncryptedKV struct {
	inner    KV
	root     keymgmt.RootKey
	material keymgmt.Material
	log      pslog.Logger
}

// NewEncryptedKV wraps inner with encryption keyed from keyStorePath. The
// key store and root key are created on first use.
func NewEncryptedKV(inner KV, keyStorePath string, logger pslog.Logger) (*EncryptedKV, error) {
	if inner == nil {
		return nil, errors.New("inner store is required")
	}
	if strings.TrimSpace(keyStorePath) == "" {
		return nil, errors.New("key store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(keyStorePath), 0o700); err != nil {
		return nil, err
	}
	store, err := keymgmt.LoadProto(keyStorePath)
	if err != nil {
		return nil, fmt.Errorf("load key store: %w", err)
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		return nil, fmt.Errorf("ensure root key: %w", err)
	}
	material, err := store.EnsureDescriptor(snapshotDescriptor, root, []byte(snapshotDescriptor))
	if err != nil {
		return nil, fmt.Errorf("ensure data key: %w", err)
	}
	if err := store.Commit(); err != nil {
		return nil, fmt.Errorf("commit key store: %w", err)
	}
	if logger != nil {
		logger = logger.With("key_store", keyStorePath)
		logger.Debug("state encryption ready")
	}
	return &EncryptedKV{inner: inner, root: root, material: material, log: logger}, nil
}

// WithEncryption wraps kv when keyStorePath is set and returns kv unchanged
// otherwise.
func WithEncryption(kv KV, keyStorePath string, logger pslog.Logger) (KV, error) {
	if strings.TrimSpace(keyStorePath) == "" {
		return kv, nil
	}
	return NewEncryptedKV(kv, keyStorePath, logger)
}

// Get decrypts the stored value for key.
func (e *EncryptedKV) Get(key string) ([]byte, bool, error) {
	data, ok, err := e.inner.Get(key)
	if err != nil || !ok {
		return data, ok, err
	}
	reader, err := kryptograf.New(e.root).DecryptReader(bytes.NewReader(data), e.material)
	if err != nil {
		e.warn("state decrypt failed", key, err)
		return nil, false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		e.warn("state decrypt failed", key, err)
		return nil, false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, true, nil
}

// Set encrypts value and stores it under key.
func (e *EncryptedKV) Set(key string, value []byte) error {
	var buf bytes.Buffer
	writer, err := kryptograf.New(e.root).EncryptWriter(&buf, e.material)
	if err != nil {
		e.warn("state encrypt failed", key, err)
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	if _, err := io.Copy(writer, bytes.NewReader(value)); err != nil {
		_ = writer.Close()
		e.warn("state encrypt failed", key, err)
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		e.warn("state encrypt failed", key, err)
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return e.inner.Set(key, buf.Bytes())
}

// Delete removes key from the wrapped store.
func (e *EncryptedKV) Delete(key string) error {
	return e.inner.Delete(key)
}

func (e *EncryptedKV) warn(msg, key string, err error) {
	if e.log != nil {
		e.log.Warn(msg, "key", key, "err", err)
	}
}
