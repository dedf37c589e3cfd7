package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup writes a point-in-time copy of the database into dir using
// VACUUM INTO (consistent even with WAL active) and prunes old copies so at
// most maxFiles remain. It returns the path of the new backup file.
func (s *Store) Backup(ctx context.Context, dir string, maxFiles int) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "./backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", persistErr("backup mkdir", err)
	}

	name := fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405"))
	dst := filepath.Join(dir, name)

	octx, cancel := s.opCtx(ctx)
	defer cancel()

	// VACUUM INTO takes a literal path; sqlite quoting doubles single quotes.
	quoted := strings.ReplaceAll(dst, "'", "''")
	if _, err := s.db.ExecContext(octx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return "", persistErr("backup vacuum", err)
	}

	if err := pruneBackups(dir, maxFiles); err != nil {
		// The backup itself succeeded; pruning failure is only worth a log.
		s.log.Warn().Err(err).Str("dir", dir).Msg("backup prune failed")
	}
	return dst, nil
}

func pruneBackups(dir string, maxFiles int) error {
	if maxFiles <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, "backup_") && strings.HasSuffix(n, ".db") {
			names = append(names, n)
		}
	}
	if len(names) <= maxFiles {
		return nil
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, n := range names[:len(names)-maxFiles] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			return err
		}
	}
	return nil
}
