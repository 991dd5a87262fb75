// Package version handles the agent's version marker and version comparisons.
package version

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultVersion is assumed when no usable version marker exists.
const DefaultVersion = "1.0.0"

// MarkerFile is the name of the version marker shipped at the root of the
// installation tree.
const MarkerFile = "VERSION.md"

var markerRegexp = regexp.MustCompile(`v(\d+\.\d+\.\d+)`)

// Current reads the version marker from the installation directory and
// returns the recorded version. Falls back to DefaultVersion when the marker
// is missing or doesn't contain a recognizable version.
func Current(installDir string) string {
	body, err := os.ReadFile(filepath.Join(installDir, MarkerFile)) //nolint:gosec
	if err != nil {
		return DefaultVersion
	}

	match := markerRegexp.FindStringSubmatch(string(body))
	if match == nil {
		return DefaultVersion
	}

	return match[1]
}

// IsNewer compares two dot-separated numeric version strings and reports
// whether candidate is strictly newer than current. The shorter version is
// zero-padded on the right before comparison, so "1.2" and "1.2.0" are
// equal. Any unparsable segment makes the comparison return false; an
// ambiguous version string must never trigger an update.
func IsNewer(candidate string, current string) bool {
	candidateParts, err := parse(candidate)
	if err != nil {
		return false
	}

	currentParts, err := parse(current)
	if err != nil {
		return false
	}

	for len(candidateParts) < len(currentParts) {
		candidateParts = append(candidateParts, 0)
	}

	for len(currentParts) < len(candidateParts) {
		currentParts = append(currentParts, 0)
	}

	for i := range candidateParts {
		if candidateParts[i] != currentParts[i] {
			return candidateParts[i] > currentParts[i]
		}
	}

	return false
}

func parse(v string) ([]int, error) {
	fields := strings.Split(v, ".")

	parts := make([]int, 0, len(fields))

	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return nil, strconv.ErrSyntax
		}

		parts = append(parts, n)
	}

	return parts, nil
}
