package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
)

// Loader reads plain-text documents from a directory tree and splits
// them into evidence chunks tagged with their source file.
type Loader struct {
	splitter *Splitter
}

// NewLoader creates a loader backed by the given splitter
func NewLoader(splitter *Splitter) *Loader {
	return &Loader{splitter: splitter}
}

// textExtensions are the file types treated as plain text
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// LoadDir walks dir recursively and returns chunks for every text file
// found. A missing directory is not an error: it yields no chunks, and
// the caller decides whether that matters.
func (l *Loader) LoadDir(dir string) ([]model.EvidenceChunk, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var chunks []model.EvidenceChunk
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fileChunks, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	return chunks, nil
}

// LoadFile reads one file and splits it into chunks
func (l *Loader) LoadFile(path string) ([]model.EvidenceChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	pieces := l.splitter.Split(string(data))
	chunks := make([]model.EvidenceChunk, 0, len(pieces))
	for _, text := range pieces {
		chunks = append(chunks, model.EvidenceChunk{
			Text: text,
			Meta: model.ChunkMeta{
				Source:     filepath.Base(path),
				SourceType: model.SourceTypeFile,
			},
		})
	}
	return chunks, nil
}

// FromText wraps ad-hoc text (stdin, request bodies) into chunks with
// the given source label.
func (l *Loader) FromText(text, source string) []model.EvidenceChunk {
	if source == "" {
		source = "inline"
	}
	pieces := l.splitter.Split(text)
	chunks := make([]model.EvidenceChunk, 0, len(pieces))
	for _, t := range pieces {
		chunks = append(chunks, model.EvidenceChunk{
			Text: t,
			Meta: model.ChunkMeta{
				Source:     source,
				SourceType: model.SourceTypeFile,
			},
		})
	}
	return chunks
}
