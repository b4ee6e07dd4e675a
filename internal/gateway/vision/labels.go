package vision

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadLabels reads one label per line. ImageNet label files often carry
// comma-separated synonyms; only the first name is kept.
func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if i := strings.IndexByte(line, ','); i > 0 {
			line = strings.TrimSpace(line[:i])
		}
		labels = append(labels, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("labels: read error: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels: file is empty: %s", path)
	}
	return labels, nil
}
