package persistence

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrChecksumMismatch   = errors.New("data file checksum mismatch")
	ErrUnsupportedVersion = errors.New("unsupported data file version")
)

// document is the on-disk layout of the data file.
type document struct {
	Version  int                 `json:"version"`
	Checksum string              `json:"checksum"`
	Tables   jsoniter.RawMessage `json:"tables"`
}

type rawTable struct {
	LastID  int64            `json:"last_id"`
	Records []map[string]any `json:"records"`
}

// FileStorage keeps every collection in one JSON document. Writes go to a temporary
// file that is renamed over the data file, so the file on disk is always complete.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage returns a store.Persister writing to path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the data file location.
func (fs *FileStorage) Path() string {
	return fs.path
}

// Save writes all tables atomically.
func (fs *FileStorage) Save(tables map[string]store.TableSnapshot) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	// 1. Encode the tables. Map keys are sorted, so equal data gives equal bytes.
	payload, err := jsonAPI.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}

	// 2. Wrap them with version and checksum.
	doc := document{
		Version:  globalconst.SnapshotVersion,
		Checksum: checksum(payload),
		Tables:   payload,
	}
	data, err := jsonAPI.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	// 3. Write to a temp file and rename it over the data file.
	if err := writeFileAtomic(fs.path, data); err != nil {
		return err
	}
	slog.Debug("Data saved", "path", fs.path, "bytes", len(data))
	return nil
}

// Load reads the data file. A missing file is not an error: it yields no tables.
func (fs *FileStorage) Load() (map[string]store.TableSnapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Data file not found, starting empty", "path", fs.path)
			return map[string]store.TableSnapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read data file '%s': %w", fs.path, err)
	}
	return decodeDocument(data, fs.path)
}

func decodeDocument(data []byte, path string) (map[string]store.TableSnapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		slog.Warn("Data file is empty, starting empty", "path", path)
		return map[string]store.TableSnapshot{}, nil
	}

	var doc document
	if err := jsonAPI.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode data file '%s': %w", path, err)
	}
	if doc.Version != globalconst.SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	// Whitespace inside the tables block does not affect the checksum.
	var compact bytes.Buffer
	if err := json.Compact(&compact, doc.Tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables in '%s': %w", path, err)
	}
	if doc.Checksum == "" {
		slog.Warn("Data file has no checksum, skipping verification", "path", path)
	} else if got := checksum(compact.Bytes()); got != doc.Checksum {
		return nil, fmt.Errorf("%w: '%s' has %s, content hashes to %s", ErrChecksumMismatch, path, doc.Checksum, got)
	}

	var raw map[string]rawTable
	decoder := jsonAPI.NewDecoder(bytes.NewReader(compact.Bytes()))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode tables in '%s': %w", path, err)
	}

	tables := make(map[string]store.TableSnapshot, len(raw))
	for name, t := range raw {
		snap := store.TableSnapshot{LastID: t.LastID, Records: make([]store.Record, 0, len(t.Records))}
		for _, rec := range t.Records {
			snap.Records = append(snap.Records, store.Normalize(rec).(map[string]any))
		}
		tables[name] = snap
	}
	return tables, nil
}

func checksum(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}

	tempPath := path + globalconst.TempFileSuffix
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file '%s': %w", tempPath, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync temporary file to disk: %w", err)
	}
	// Close before renaming, required on Windows.
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file to '%s': %w", path, err)
	}
	return nil
}
