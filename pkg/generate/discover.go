package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SpecPattern matches the file names searched by DiscoverSpec.
const SpecPattern = "**/openapi.{json,yaml,yml}"

// DiscoverSpec returns the path of the shallowest OpenAPI document under
// dir matching SpecPattern. Ties are broken by path order.
func DiscoverSpec(dir string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), SpecPattern)
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no file matching %s under %s", SpecPattern, dir)
	}

	sort.Slice(matches, func(i, j int) bool {
		di, dj := strings.Count(matches[i], "/"), strings.Count(matches[j], "/")
		if di != dj {
			return di < dj
		}
		return matches[i] < matches[j]
	})
	return filepath.Join(dir, filepath.FromSlash(matches[0])), nil
}
