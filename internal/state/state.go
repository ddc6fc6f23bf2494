// Package state persists the install receipt that records what a bootstrap run installed.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// receiptName is the receipt filename written inside the environment root.
const receiptName = "aid-receipt.json"

// ErrNoReceipt indicates that the environment has no install receipt.
var ErrNoReceipt = errors.New("no install receipt")

// Receipt records a completed installation into a virtual environment.
type Receipt struct {
	// ManifestHash is the SHA-256 of the raw requirements manifest.
	ManifestHash string `json:"manifestHash"`
	// Requirements lists the normalized requirement lines that were installed.
	Requirements []string `json:"requirements"`
	// PythonVersion is the interpreter version used for the install.
	PythonVersion string `json:"pythonVersion"`
	// WheelDir is the wheel cache the install drew from.
	WheelDir string `json:"wheelDir"`
	// CreatedAt is the completion timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// Store reads and writes receipts inside a virtual environment directory.
type Store struct {
	dir string
}

// NewStore constructs a Store rooted at the environment directory.
func NewStore(envDir string) *Store {
	return &Store{dir: envDir}
}

// Path returns the receipt file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, receiptName)
}

// Load reads the receipt, returning ErrNoReceipt when none exists.
func (s *Store) Load() (*Receipt, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoReceipt
		}
		return nil, fmt.Errorf("read receipt: %w", err)
	}

	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode receipt %q: %w", s.Path(), err)
	}
	return &r, nil
}

// Write stores the receipt. It is only called after a successful install so
// a half-finished run never looks complete.
func (s *Store) Write(r *Receipt) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	if err := os.WriteFile(s.Path(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// Clear removes any existing receipt. Called before installation starts so a
// failed run leaves no stale success marker behind.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear receipt: %w", err)
	}
	return nil
}

// Matches reports whether the stored receipt covers the given manifest hash.
func (r *Receipt) Matches(manifestHash string) bool {
	return r != nil && r.ManifestHash != "" && r.ManifestHash == manifestHash
}

// HashManifest computes the hex SHA-256 of a requirements manifest file.
func HashManifest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash manifest %q: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
