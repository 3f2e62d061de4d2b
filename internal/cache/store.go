package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/search"
)

const (
	MetadataFile  = "metadata.json"
	jobDirPrefix  = "job_"
	logFileSuffix = ".log"
)

// Store is a directory holding metadata.json and one job_<id> directory of
// *.log files per job.
type Store struct {
	dir string
}

// Create makes dir if needed and returns a store rooted there.
func Create(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Open returns a store for an existing directory.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: Cache directory does not exist: %s", model.ErrCacheCorrupt, dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) MetadataPath() string {
	return filepath.Join(s.dir, MetadataFile)
}

func (s *Store) JobDir(jobID int64) string {
	return filepath.Join(s.dir, jobDirPrefix+strconv.FormatInt(jobID, 10))
}

// LogFileName maps an upstream log name to a file name inside a job dir.
func LogFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "log"
	}
	return name + logFileSuffix
}

// WriteLog streams r into job_<id>/<name>.log and returns the written path.
func (s *Store) WriteLog(jobID int64, name string, r io.Reader) (string, error) {
	dir := s.JobDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	path := filepath.Join(dir, LogFileName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create log file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write log %s: %w", path, err)
	}
	return path, f.Close()
}

// Save writes metadata.json. The write goes through a temp file and a
// rename so an interrupted save never leaves a truncated file behind.
func (s *Store) Save(meta model.CachedPushMetadata) error {
	if meta.Jobs == nil {
		meta.Jobs = []model.Job{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp := s.MetadataPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, s.MetadataPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (s *Store) Load() (*model.CachedPushMetadata, error) {
	data, err := os.ReadFile(s.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrCacheCorrupt, s.MetadataPath(), err)
	}
	var meta model.CachedPushMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrCacheCorrupt, s.MetadataPath(), err)
	}
	return &meta, nil
}

// LogFiles lists the *.log files of a job, sorted by name.
func (s *Store) LogFiles(jobID int64) ([]string, error) {
	dir := s.JobDir(jobID)
	names, err := doublestar.Glob(os.DirFS(dir), "*"+logFileSuffix, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list logs in %s: %w", dir, err)
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func (s *Store) HasJob(jobID int64) bool {
	info, err := os.Stat(s.JobDir(jobID))
	return err == nil && info.IsDir()
}

// SearchLogs re-scans the cached logs of jobs. Jobs without a directory are
// skipped and reported in missing. A nil or inactive engine yields results
// with no matches.
func (s *Store) SearchLogs(jobs []model.Job, engine *search.Engine) (results []model.JobWithLogs, missing []int64, err error) {
	results = []model.JobWithLogs{}
	for _, job := range jobs {
		if !s.HasJob(job.ID) {
			missing = append(missing, job.ID)
			continue
		}

		jwl := model.NewJobWithLogs(job)
		jwl.LogDir = s.JobDir(job.ID)
		if engine.Active() {
			paths, err := s.LogFiles(job.ID)
			if err != nil {
				return nil, missing, fmt.Errorf("%w: %v", model.ErrCacheCorrupt, err)
			}
			for _, path := range paths {
				name := strings.TrimSuffix(filepath.Base(path), logFileSuffix)
				matches, err := engine.ScanFile(name, path)
				if err != nil {
					return nil, missing, fmt.Errorf("%w: %v", model.ErrCacheCorrupt, err)
				}
				jwl.LogMatches = append(jwl.LogMatches, matches...)
			}
		}
		results = append(results, jwl)
	}
	return results, missing, nil
}

// JobIDs returns the ids of every job_<id> directory under the root.
func (s *Store) JobIDs() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []int64
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), jobDirPrefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(e.Name(), jobDirPrefix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// TotalSize returns the number of bytes stored under the root.
func (s *Store) TotalSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total, err
}

// Remove deletes the whole root. Used for temporary log directories.
func (s *Store) Remove() error {
	return os.RemoveAll(s.dir)
}
