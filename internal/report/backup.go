package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget/internal/core"
)

// FormatVersion is written into every backup. Parse accepts any version
// with the same major number.
const FormatVersion = "1.0"

var (
	ErrMalformedBackup    = errors.New("malformed backup")
	ErrUnsupportedVersion = errors.New("unsupported backup version")
)

// Backup is the full export of categories and transactions.
type Backup struct {
	ExportDate   time.Time          `json:"exportDate"`
	Version      string             `json:"version"`
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
}

// Serialize builds a backup from deep copies of txs and cats.
func Serialize(txs []core.Transaction, cats []core.Category, exportDate time.Time) Backup {
	b := Backup{
		ExportDate:   exportDate.UTC(),
		Version:      FormatVersion,
		Transactions: make([]core.Transaction, len(txs)),
		Categories:   make([]core.Category, len(cats)),
	}
	for i, t := range txs {
		b.Transactions[i] = t.Clone()
	}
	copy(b.Categories, cats)
	return b
}

// Marshal encodes b as indented JSON.
func Marshal(b Backup) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// Parse decodes a backup. Unknown fields are ignored; missing collections
// become empty.
func Parse(data []byte) (Backup, error) {
	var b Backup
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&b); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if b.Version == "" {
		return Backup{}, fmt.Errorf("%w: missing version", ErrMalformedBackup)
	}
	if major(b.Version) != major(FormatVersion) {
		return Backup{}, fmt.Errorf("%w: %s", ErrUnsupportedVersion, b.Version)
	}
	if b.Transactions == nil {
		b.Transactions = []core.Transaction{}
	}
	if b.Categories == nil {
		b.Categories = []core.Category{}
	}
	return b, nil
}

func major(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}
