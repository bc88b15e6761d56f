package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

const snapshotVersion = 1

type snapshotFile struct {
	Version int                  `json:"version"`
	Entries map[string]*memEntry `json:"entries"`
}

// SaveSnapshot 은 만료되지 않은 키를 zstd 압축 JSON 파일로 기록한다.
// 임시 파일에 쓴 뒤 rename 하므로 도중에 실패해도 기존 스냅샷은 유지된다.
func (m *MemoryStore) SaveSnapshot(path string) (int, error) {
	now := m.now()
	m.mu.Lock()
	live := make(map[string]*memEntry, len(m.entries))
	for key, entry := range m.entries {
		if entry.expired(now) {
			continue
		}
		copied := *entry
		live[key] = &copied
	}
	m.mu.Unlock()

	raw, err := json.Marshal(snapshotFile{Version: snapshotVersion, Entries: live})
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	packed, err := compress(raw)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, packed, 0o600); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("rename snapshot: %w", err)
	}
	return len(live), nil
}

// LoadSnapshot 은 스냅샷 파일을 읽어 만료되지 않은 키를 복원한다. 파일이 없으면 0 을 반환한다.
func (m *MemoryStore) LoadSnapshot(path string) (int, error) {
	packed, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	raw, err := decompress(packed)
	if err != nil {
		return 0, err
	}
	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		return 0, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version: %d", snap.Version)
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	restored := 0
	for key, entry := range snap.Entries {
		if entry == nil || entry.expired(now) {
			continue
		}
		if entry.Kind == kindSet && entry.Set == nil {
			entry.Set = make(map[string]bool)
		}
		m.entries[key] = entry
		restored++
	}
	return restored, nil
}
