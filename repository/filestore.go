package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fundamental-analyst/models"
)

// FileStore keeps analysis outputs and raw snapshots on the local
// filesystem, one file per ticker and kind.
type FileStore struct {
	outputDir string
	rawDir    string
}

// NewFileStore creates a FileStore rooted at the given directories. The
// directories are created lazily on first write.
func NewFileStore(outputDir, rawDir string) *FileStore {
	return &FileStore{outputDir: outputDir, rawDir: rawDir}
}

// OutputDir returns the directory holding artifacts and memos
func (s *FileStore) OutputDir() string {
	return s.outputDir
}

// RawDir returns the directory holding raw snapshots
func (s *FileStore) RawDir() string {
	return s.rawDir
}

// ArtifactPath returns where the analysis artifact for ticker is stored
func (s *FileStore) ArtifactPath(ticker string) string {
	return filepath.Join(s.outputDir, ticker+"_analysis.json")
}

// MemoPath returns where the investment memo for ticker is stored
func (s *FileStore) MemoPath(ticker string) string {
	return filepath.Join(s.outputDir, ticker+"_investment_memo.md")
}

// SaveArtifact writes the artifact as indented JSON and returns its path
func (s *FileStore) SaveArtifact(artifact *models.AnalysisArtifact) (string, error) {
	if artifact == nil || artifact.Ticker == "" {
		return "", errors.New("artifact has no ticker")
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact: %w", err)
	}

	path := s.ArtifactPath(artifact.Ticker)
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// LoadArtifact reads the persisted artifact for ticker. A missing file
// wraps models.ErrArtifactNotFound.
func (s *FileStore) LoadArtifact(ticker string) (*models.AnalysisArtifact, error) {
	path := s.ArtifactPath(ticker)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", models.ErrArtifactNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact models.AnalysisArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if artifact.Ratios == nil || artifact.Valuation == nil {
		return nil, fmt.Errorf("artifact %s is incomplete", path)
	}
	return &artifact, nil
}

// SaveMemo renders the memo as Markdown and returns its path
func (s *FileStore) SaveMemo(memo *models.InvestmentMemo) (string, error) {
	if memo == nil || memo.Ticker == "" {
		return "", errors.New("memo has no ticker")
	}
	path := s.MemoPath(memo.Ticker)
	if err := writeFileAtomic(path, []byte(memo.Markdown())); err != nil {
		return "", fmt.Errorf("failed to write memo: %w", err)
	}
	return path, nil
}

// RemoveMemo deletes the memo for ticker. A missing memo is not an error.
func (s *FileStore) RemoveMemo(ticker string) error {
	err := os.Remove(s.MemoPath(ticker))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove memo: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
