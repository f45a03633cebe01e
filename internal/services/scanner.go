package services

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/repolens/reviewserver/internal/logger"
)

// RepoReviewConfig is the optional review.yaml a repository may carry at its
// root to steer the review
type RepoReviewConfig struct {
	Include []string `yaml:"include"` // extra extensions to scan, e.g. ".rs"
	Exclude []string `yaml:"exclude"` // extensions to skip
	Context string   `yaml:"context"` // extra assignment context appended to the prompt
}

// repoConfigFileName is looked up at the repository root
const repoConfigFileName = "review.yaml"

// defaultExtensions are the source file extensions reviewed when the
// repository carries no review.yaml overrides
var defaultExtensions = []string{".py", ".js", ".vim", ".java", ".cpp", ".c", ".go", ".ts"}

// LoadRepoConfig reads and validates review.yaml from the cloned repository.
// A missing file is not an error; invalid YAML is.
func LoadRepoConfig(repoDir string) (*RepoReviewConfig, error) {
	configPath := filepath.Join(repoDir, repoConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", repoConfigFileName, err)
	}

	var cfg RepoReviewConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML syntax in %s: %w", repoConfigFileName, err)
	}

	return &cfg, nil
}

// ScanSourceFiles walks the cloned repository and returns the relative paths
// of all source files eligible for review
func ScanSourceFiles(repoDir string, cfg *RepoReviewConfig) ([]string, error) {
	extensions := make(map[string]bool, len(defaultExtensions))
	for _, ext := range defaultExtensions {
		extensions[ext] = true
	}
	if cfg != nil {
		for _, ext := range cfg.Include {
			extensions[normalizeExt(ext)] = true
		}
		for _, ext := range cfg.Exclude {
			delete(extensions, normalizeExt(ext))
		}
	}

	var files []string
	err := filepath.WalkDir(repoDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// An unreadable root is fatal; a single unreadable entry is not
			if path == repoDir {
				return err
			}
			logger.WithFields(map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			}).Warn("Skipping unreadable repository entry")
			return nil
		}
		if d.IsDir() {
			// Git metadata is never part of the review
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !extensions[filepath.Ext(d.Name())] {
			return nil
		}

		rel, err := filepath.Rel(repoDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}

	return files, nil
}

// normalizeExt ensures an extension carries a leading dot
func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
