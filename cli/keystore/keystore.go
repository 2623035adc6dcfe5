// Package keystore keeps project API keys in an encrypted file, keyed by a
// reference name that profiles point at through api_key_ref.
package keystore

import (
	"errors"
	"os"
	"path/filepath"
)

// PassphraseEnvVar holds an optional passphrase protecting the keystore.
const PassphraseEnvVar = "BASALT_KEYSTORE_PASSPHRASE"

// Keystore stores API keys by reference name.
type Keystore interface {
	Set(name, value string) error
	// Get returns *ErrKeyNotFound when name is absent.
	Get(name string) (string, error)
	// Delete returns *ErrKeyNotFound when name is absent.
	Delete(name string) error
	// List returns the stored names, sorted.
	List() ([]string, error)
}

// ErrKeyNotFound reports a missing key reference.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// DefaultKeystorePath returns ~/.basalt/keys.enc, or keys.enc in the
// working directory when no home directory is known.
func DefaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "keys.enc"
	}
	return filepath.Join(home, ".basalt", "keys.enc")
}

// NewKeystore opens the keystore at the default path, protected by the
// default master key source.
func NewKeystore() (Keystore, error) {
	return NewFileKeystoreWithSource(DefaultKeystorePath(), DefaultMasterKeySource())
}

// MasterKeySource supplies the secret the file encryption key is derived from.
type MasterKeySource interface {
	MasterKey() ([]byte, error)
}

// DefaultMasterKeySource uses the passphrase variable when set and the
// machine-derived key otherwise.
func DefaultMasterKeySource() MasterKeySource {
	if os.Getenv(PassphraseEnvVar) != "" {
		return EnvSource(PassphraseEnvVar)
	}
	return MachineSource{}
}

// StaticSource is a fixed passphrase.
type StaticSource string

func (s StaticSource) MasterKey() ([]byte, error) {
	if s == "" {
		return nil, errors.New("keystore: empty passphrase")
	}
	return []byte(s), nil
}

// EnvSource names the environment variable holding the passphrase.
type EnvSource string

func (e EnvSource) MasterKey() ([]byte, error) {
	v := os.Getenv(string(e))
	if v == "" {
		return nil, errors.New("keystore: " + string(e) + " is not set")
	}
	return []byte(v), nil
}

// MachineSource derives the master key from the host and user names.
// It only keeps keys out of casual view; set BASALT_KEYSTORE_PASSPHRASE
// for real protection.
type MachineSource struct{}

func (MachineSource) MasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	return []byte(hostname + ":" + username + ":basalt-keystore"), nil
}
