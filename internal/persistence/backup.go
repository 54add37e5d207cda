package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/store"
)

// backupTimeLayout names backup directories; it sorts chronologically.
const backupTimeLayout = "2006-01-02_15-04-05.000"

const backupFileName = "mcp_server.json"

var ErrBackupInProgress = errors.New("backup already in progress")

// Snapshotter is anything that can capture all tables, typically *store.DB.
type Snapshotter interface {
	Snapshot() map[string]store.TableSnapshot
}

// BackupManager writes timestamped copies of the data into a backup directory and
// prunes the ones older than the retention period.
type BackupManager struct {
	source          Snapshotter
	dir             string
	backupLock      sync.RWMutex
	lastBackupTime  time.Time
	backupRunning   bool
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	backupInterval  time.Duration
	backupRetention time.Duration
	now             func() time.Time
}

// NewBackupManager creates a backup manager. A zero retention keeps every backup.
func NewBackupManager(source Snapshotter, dir string, interval, retention time.Duration) *BackupManager {
	return &BackupManager{
		source:          source,
		dir:             dir,
		stopChan:        make(chan struct{}),
		backupInterval:  interval,
		backupRetention: retention,
		now:             time.Now,
	}
}

// Dir returns the backup root directory.
func (bm *BackupManager) Dir() string {
	return bm.dir
}

// Start runs periodic backups until Stop. A non-positive interval disables them.
func (bm *BackupManager) Start() {
	if bm.backupInterval <= 0 {
		slog.Info("Periodic backups disabled")
		return
	}
	slog.Info("Backup manager starting", "dir", bm.dir, "interval", bm.backupInterval.String(), "retention", bm.backupRetention.String())
	bm.wg.Add(1)
	go bm.runPeriodicBackups()
}

// Stop terminates the periodic backups and waits for a running one to finish.
func (bm *BackupManager) Stop() {
	bm.stopOnce.Do(func() { close(bm.stopChan) })
	bm.wg.Wait()
}

func (bm *BackupManager) runPeriodicBackups() {
	defer bm.wg.Done()

	ticker := time.NewTicker(bm.backupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := bm.PerformBackup(); err != nil {
				slog.Error("Error in periodic backup", "error", err)
			}
		case <-bm.stopChan:
			slog.Info("Backup manager received stop signal. Stopping.")
			return
		}
	}
}

// PerformBackup writes a full copy of the data and returns the backup name.
func (bm *BackupManager) PerformBackup() (string, error) {
	bm.backupLock.Lock()
	if bm.backupRunning {
		bm.backupLock.Unlock()
		slog.Warn("Backup skipped: another backup is already in progress.")
		return "", ErrBackupInProgress
	}
	bm.backupRunning = true
	bm.backupLock.Unlock()

	defer func() {
		bm.backupLock.Lock()
		bm.backupRunning = false
		bm.backupLock.Unlock()
	}()

	snaps := bm.source.Snapshot()
	name := bm.now().UTC().Format(backupTimeLayout)
	backupPath := filepath.Join(bm.dir, name)

	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return "", fmt.Errorf("error creating backup directory: %w", err)
	}
	if err := NewFileStorage(filepath.Join(backupPath, backupFileName)).Save(snaps); err != nil {
		os.RemoveAll(backupPath)
		return "", fmt.Errorf("error writing backup: %w", err)
	}
	if err := bm.verifyBackup(name, snaps); err != nil {
		slog.Error("Backup verification failed", "path", backupPath, "error", err)
		return "", fmt.Errorf("backup verification failed: %w", err)
	}

	bm.backupLock.Lock()
	bm.lastBackupTime = bm.now()
	bm.backupLock.Unlock()
	slog.Info("Backup completed", "path", backupPath)

	bm.cleanOldBackups()
	return name, nil
}

// verifyBackup reads the backup back and checks it holds what was written.
func (bm *BackupManager) verifyBackup(name string, expected map[string]store.TableSnapshot) error {
	loaded, err := bm.Load(name)
	if err != nil {
		return err
	}
	for table, snap := range expected {
		got, ok := loaded[table]
		if !ok {
			return fmt.Errorf("collection %s missing from backup", table)
		}
		if len(got.Records) != len(snap.Records) || got.LastID != snap.LastID {
			return fmt.Errorf("collection %s: backup has %d records (last id %d), expected %d (last id %d)",
				table, len(got.Records), got.LastID, len(snap.Records), snap.LastID)
		}
	}
	return nil
}

// Load reads the tables stored in the named backup.
func (bm *BackupManager) Load(name string) (map[string]store.TableSnapshot, error) {
	path := filepath.Join(bm.dir, filepath.Base(name), backupFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("backup '%s' not found: %w", name, err)
	}
	return NewFileStorage(path).Load()
}

// List returns the backup names, oldest first.
func (bm *BackupManager) List() ([]string, error) {
	entries, err := os.ReadDir(bm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// cleanOldBackups removes backups older than the retention period and returns how
// many were removed.
func (bm *BackupManager) cleanOldBackups() int {
	if bm.backupRetention <= 0 {
		return 0
	}
	cutoffTime := bm.now().Add(-bm.backupRetention)
	entries, err := os.ReadDir(bm.dir)
	if err != nil {
		slog.Error("Failed to read backup directory for cleanup", "error", err)
		return 0
	}

	cleanedCount := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoffTime) {
			path := filepath.Join(bm.dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				slog.Error("Failed to delete old backup", "path", path, "error", err)
			} else {
				slog.Info("Old backup deleted", "path", path)
				cleanedCount++
			}
		}
	}
	if cleanedCount > 0 {
		slog.Info("Backup cleanup finished", "deleted_count", cleanedCount)
	}
	return cleanedCount
}

// GetBackupStatus describes the backup state for humans.
func (bm *BackupManager) GetBackupStatus() string {
	bm.backupLock.RLock()
	defer bm.backupLock.RUnlock()

	if bm.backupRunning {
		return "Backup in progress"
	}
	if bm.lastBackupTime.IsZero() {
		return "A backup has never been performed"
	}
	return fmt.Sprintf("Last successful backup: %s", bm.lastBackupTime.Format(time.RFC1123))
}
