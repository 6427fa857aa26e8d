package evaluation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var audioExts = map[string]bool{".wav": true, ".mp3": true, ".m4a": true}

// Sample is one audio file with its reference transcript.
type Sample struct {
	AudioPath string
	Reference string
}

// LoadDataset pairs every audio file in dir with a sibling <name>.txt. Files without a
// non-empty transcript are skipped. limit <= 0 means no limit.
func LoadDataset(dir string, limit int) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var samples []Sample
	for _, name := range names {
		ext := filepath.Ext(name)
		if !audioExts[strings.ToLower(ext)] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, strings.TrimSuffix(name, ext)+".txt"))
		if err != nil {
			continue
		}
		ref := strings.TrimSpace(string(data))
		if ref == "" {
			continue
		}

		samples = append(samples, Sample{AudioPath: filepath.Join(dir, name), Reference: ref})
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	return samples, nil
}
