// Package notes stores authorship logs in a git notes ref and keeps that
// ref in sync with remotes.
package notes

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/git"
)

// DefaultRef is where authorship logs are kept.
const DefaultRef = "refs/notes/attrib"

// Notes reads and writes notes under one ref. Writes go through git
// plumbing only, so the working tree and index are never touched.
type Notes struct {
	repo *git.Repository
	ref  string
}

// New returns a Notes handle for ref (e.g. "refs/notes/attrib").
func New(repo *git.Repository, ref string) *Notes {
	if ref == "" {
		ref = DefaultRef
	}
	return &Notes{repo: repo, ref: ref}
}

// Ref is the fully qualified notes ref.
func (n *Notes) Ref() string { return n.ref }

// Exists returns true if the notes ref exists locally.
func (n *Notes) Exists(ctx context.Context) bool {
	_, err := n.repo.Output(ctx, "rev-parse", "--verify", "--quiet", n.ref)
	return err == nil
}

// Write attaches data to commit, replacing any existing note.
func (n *Notes) Write(ctx context.Context, commit string, data []byte) error {
	out, err := n.repo.OutputWithInput(ctx, bytes.NewReader(data), "hash-object", "-w", "--stdin")
	if err != nil {
		return fmt.Errorf("hash-object: %w", err)
	}
	blob := strings.TrimSpace(string(out))
	if _, err := n.repo.Output(ctx, "notes", "--ref", n.ref, "add", "-f", "-C", blob, commit); err != nil {
		return fmt.Errorf("notes add %s: %w", commit, err)
	}
	return nil
}

// Remove deletes the note on commit, if any.
func (n *Notes) Remove(ctx context.Context, commit string) error {
	_, err := n.repo.Output(ctx, "notes", "--ref", n.ref, "remove", "--ignore-missing", commit)
	return err
}

// BlobFor returns the note blob attached to commit.
func (n *Notes) BlobFor(ctx context.Context, commit string) (string, error) {
	out, err := n.repo.Output(ctx, "notes", "--ref", n.ref, "list", commit)
	if err != nil {
		if git.ExitCode(err) == 1 {
			return "", fmt.Errorf("note for %s: %w", commit, attribution.ErrNotFound)
		}
		return "", fmt.Errorf("notes list %s: %w", commit, err)
	}
	blob := strings.TrimSpace(string(out))
	if blob == "" {
		return "", fmt.Errorf("note for %s: %w", commit, attribution.ErrNotFound)
	}
	return blob, nil
}

// Read returns the note attached to commit, or attribution.ErrNotFound.
func (n *Notes) Read(ctx context.Context, commit string) ([]byte, error) {
	blob, err := n.BlobFor(ctx, commit)
	if err != nil {
		return nil, err
	}
	out, err := n.repo.Output(ctx, "cat-file", "blob", blob)
	if err != nil {
		return nil, fmt.Errorf("reading note blob %s: %w", blob, err)
	}
	return out, nil
}

// List maps every annotated commit to its note blob.
func (n *Notes) List(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	if !n.Exists(ctx) {
		return out, nil
	}
	data, err := n.repo.Output(ctx, "notes", "--ref", n.ref, "list")
	if err != nil {
		return nil, fmt.Errorf("notes list: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		blob, commit, ok := strings.Cut(strings.TrimSpace(line), " ")
		if ok {
			out[commit] = blob
		}
	}
	return out, nil
}

// ReadBlobs reads many blobs with a single git cat-file --batch.
func (n *Notes) ReadBlobs(ctx context.Context, blobs []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(blobs))
	if len(blobs) == 0 {
		return out, nil
	}
	var req bytes.Buffer
	for _, b := range blobs {
		req.WriteString(b)
		req.WriteByte('\n')
	}
	data, err := n.repo.OutputWithInput(ctx, &req, "cat-file", "--batch")
	if err != nil {
		return nil, fmt.Errorf("cat-file --batch: %w", err)
	}
	return parseCatFileBatch(data, out)
}

// parseCatFileBatch decodes "<sha> <type> <size>\n<content>\n" records.
func parseCatFileBatch(data []byte, out map[string][]byte) (map[string][]byte, error) {
	r := bufio.NewReader(bytes.NewReader(data))
	for {
		header, err := r.ReadString('\n')
		if err == io.EOF && header == "" {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cat-file header: %w", err)
		}
		fields := strings.Fields(header)
		if len(fields) == 2 && fields[1] == "missing" {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("cat-file header %q", strings.TrimSpace(header))
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("cat-file size %q: %w", fields[2], err)
		}
		body := make([]byte, size+1)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("cat-file body of %s: %w", fields[0], err)
		}
		out[fields[0]] = body[:size]
	}
}
