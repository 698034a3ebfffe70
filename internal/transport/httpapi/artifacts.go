package httpapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sandevgo/talkdata/pkg/log"
)

// artifactKeep is how many synthesized replies stay on disk. Clients fetch
// the audio right after the chat response, old files are only a cache.
const artifactKeep = 10

// artifactStore keeps the last few synthesized audio files in the temp
// directory and prunes everything older.
type artifactStore struct {
	dir  string
	keep int
	mu   sync.Mutex
}

func newArtifactStore(dir string, keep int) *artifactStore {
	return &artifactStore{dir: dir, keep: keep}
}

func (s *artifactStore) save(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	s.prune(ctx)
	return nil
}

func (s *artifactStore) path(name string) (string, bool) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (s *artifactStore) prune(ctx context.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	type aged struct {
		name string
		mod  int64
	}
	var files []aged
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{name: e.Name(), mod: info.ModTime().UnixNano()})
	}
	if len(files) <= s.keep {
		return
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mod > files[j].mod })
	for _, f := range files[s.keep:] {
		if err := os.Remove(filepath.Join(s.dir, f.name)); err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("file", f.name).Msg("failed to prune artifact")
		}
	}
}
