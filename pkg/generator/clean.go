package generator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/blimu-dev/php-client-gen/pkg/config"
)

// cleanOutDir removes everything below client.OutDir except the paths its
// exclude list names. Directories left empty are removed too; OutDir itself
// stays.
func (s *Service) cleanOutDir(client config.Client) error {
	root, err := filepath.Abs(client.OutDir)
	if err != nil {
		return err
	}
	if err := refuseToClean(root); err != nil {
		return err
	}
	client.OutDir = root

	var dirs []string
	removed := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if client.ShouldExcludeFile(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first, so parents see their children gone.
	slices.Reverse(dirs)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				return err
			}
		}
	}

	s.logger.Info("cleaned output directory", zap.String("dir", root), zap.Int("removed", removed))
	return nil
}

func refuseToClean(dir string) error {
	if filepath.Dir(dir) == dir {
		return fmt.Errorf("refusing to clean filesystem root %s", dir)
	}
	if home, err := os.UserHomeDir(); err == nil && filepath.Clean(home) == dir {
		return fmt.Errorf("refusing to clean home directory %s", dir)
	}
	return nil
}
