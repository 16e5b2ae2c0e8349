package store

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jensroland/git-attrib/internal/attribution"
)

const (
	initialFileName     = "INITIAL"
	checkpointsFileName = "checkpoints.jsonl"
	blobsDirName        = "blobs"

	// unbornKey names the working log of a repository without commits.
	unbornKey = "unborn"
)

// InitialEntry is the inherited attribution of one file.
type InitialEntry struct {
	ContentSHA string               `json:"content_sha,omitempty"`
	LineCount  int                  `json:"line_count"`
	Records    []attribution.Record `json:"records"`
}

// Initial is the INITIAL slot of a working log.
type Initial struct {
	Files   map[string]InitialEntry       `json:"files"`
	Prompts map[string]attribution.Prompt `json:"prompts,omitempty"`
}

// Checkpoint is one captured editing episode. It stores the complete
// resulting attribution of File, so the latest checkpoint per file is
// authoritative.
type Checkpoint struct {
	ID         string               `json:"id"`
	Timestamp  time.Time            `json:"ts"`
	Kind       attribution.Kind     `json:"kind"`
	Author     attribution.Author   `json:"author"`
	File       string               `json:"file"`
	ContentSHA string               `json:"content_sha,omitempty"`
	Deleted    bool                 `json:"deleted,omitempty"`
	LineCount  int                  `json:"line_count"`
	Records    []attribution.Record `json:"records"`
	PromptID   string               `json:"prompt_id,omitempty"`
	Prompt     *attribution.Prompt  `json:"prompt,omitempty"`
}

func workingKey(base string) string {
	if base == "" {
		return unbornKey
	}
	return base
}

func (s *Store) workingDir(base string) string {
	return s.paths.WorkingLogDir(workingKey(base))
}

// HasWorking reports whether a working log exists for base.
func (s *Store) HasWorking(base string) bool {
	info, err := os.Stat(s.workingDir(base))
	return err == nil && info.IsDir()
}

// LoadWorking rebuilds the uncommitted attribution anchored at base from
// INITIAL plus the checkpoint log. It never runs blame or diff.
func (s *Store) LoadWorking(ctx context.Context, base string, humanFallback attribution.Author) (*attribution.VirtualAttributions, error) {
	dir := s.workingDir(base)
	if !s.HasWorking(base) {
		return attribution.Empty(base, humanFallback), nil
	}

	files := make(map[string]attribution.FileAttribution)
	prompts := make(map[string]attribution.Prompt)

	initial, err := s.readInitial(dir)
	if err != nil {
		return nil, err
	}
	if initial != nil {
		for path, e := range initial.Files {
			fa, err := s.fileFromStored(dir, e.ContentSHA, e.LineCount, e.Records)
			if err != nil {
				return nil, fmt.Errorf("%w: INITIAL %s: %v", attribution.ErrStoreCorrupt, path, err)
			}
			files[path] = fa
		}
		for id, p := range initial.Prompts {
			prompts[id] = p
		}
	}

	cps, err := s.readCheckpoints(dir)
	if err != nil {
		return nil, err
	}
	for _, cp := range cps {
		if cp.Prompt != nil && cp.PromptID != "" {
			prompts[cp.PromptID] = *cp.Prompt
		}
		if cp.Deleted {
			delete(files, cp.File)
			continue
		}
		fa, err := s.fileFromStored(dir, cp.ContentSHA, cp.LineCount, cp.Records)
		if err != nil {
			return nil, fmt.Errorf("%w: checkpoint %s: %v", attribution.ErrStoreCorrupt, cp.ID, err)
		}
		files[cp.File] = fa
	}

	va, err := attribution.New(base, base, files, prompts, humanFallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", attribution.ErrStoreCorrupt, err)
	}
	return va, nil
}

func (s *Store) fileFromStored(dir, contentSHA string, lineCount int, records []attribution.Record) (attribution.FileAttribution, error) {
	fa := attribution.FileAttribution{Records: records, LineCount: lineCount}
	if contentSHA != "" {
		content, err := os.ReadFile(filepath.Join(dir, blobsDirName, contentSHA))
		if err != nil {
			return fa, fmt.Errorf("content blob %s: %w", contentSHA, err)
		}
		c := string(content)
		fa.Content = &c
	}
	return fa, fa.Validate()
}

func (s *Store) readInitial(dir string) (*Initial, error) {
	data, err := os.ReadFile(filepath.Join(dir, initialFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading INITIAL: %w", err)
	}
	var initial Initial
	if err := json.Unmarshal(data, &initial); err != nil {
		return nil, fmt.Errorf("%w: INITIAL: %v", attribution.ErrStoreCorrupt, err)
	}
	return &initial, nil
}

func (s *Store) readCheckpoints(dir string) ([]Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(dir, checkpointsFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoints: %w", err)
	}

	var cps []Checkpoint
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var cp Checkpoint
		if err := json.Unmarshal(line, &cp); err != nil {
			return nil, fmt.Errorf("%w: checkpoints line %d: %v", attribution.ErrStoreCorrupt, lineNo, err)
		}
		if cp.File == "" {
			return nil, fmt.Errorf("%w: checkpoints line %d: missing file", attribution.ErrStoreCorrupt, lineNo)
		}
		cps = append(cps, cp)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: checkpoints: %v", attribution.ErrStoreCorrupt, err)
	}
	return cps, nil
}

// Checkpoints returns the episodes recorded against base, oldest first.
func (s *Store) Checkpoints(base string) ([]Checkpoint, error) {
	return s.readCheckpoints(s.workingDir(base))
}

// WriteInitial replaces the INITIAL slot for base.
func (s *Store) WriteInitial(base string, files map[string]attribution.FileAttribution, prompts map[string]attribution.Prompt) error {
	dir := s.workingDir(base)
	initial := Initial{Files: make(map[string]InitialEntry, len(files))}
	for path, fa := range files {
		if err := fa.Validate(); err != nil {
			return fmt.Errorf("INITIAL %s: %w", path, err)
		}
		entry := InitialEntry{LineCount: fa.LineCount, Records: fa.Records}
		if fa.Content != nil {
			sha, err := writeBlob(dir, *fa.Content)
			if err != nil {
				return err
			}
			entry.ContentSHA = sha
		}
		initial.Files[path] = entry
	}
	if refs := attribution.ReferencedPrompts(files, prompts); len(refs) > 0 {
		initial.Prompts = refs
	}

	data, err := json.MarshalIndent(initial, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, initialFileName), append(data, '\n'))
}

// AppendCheckpoint records an episode for base. content is the file text
// the checkpoint's records describe.
func (s *Store) AppendCheckpoint(base string, cp Checkpoint, content string) error {
	dir := s.workingDir(base)
	if !cp.Deleted {
		sha, err := writeBlob(dir, content)
		if err != nil {
			return err
		}
		cp.ContentSHA = sha
	}
	line, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, checkpointsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening checkpoints: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending checkpoint: %w", err)
	}
	return nil
}

// DiscardWorking removes the working log anchored at base.
func (s *Store) DiscardWorking(base string) error {
	return os.RemoveAll(s.workingDir(base))
}

func writeBlob(dir, content string) (string, error) {
	sum := sha256.Sum256([]byte(content))
	sha := hex.EncodeToString(sum[:])
	path := filepath.Join(dir, blobsDirName, sha)
	if _, err := os.Stat(path); err == nil {
		return sha, nil
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", err
	}
	return sha, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
