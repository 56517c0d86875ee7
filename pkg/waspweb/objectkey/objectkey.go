// Package objectkey builds the storage keys used for script files, script
// images and package releases.
//
// Layout:
//
//	scripts bucket:  {scriptID}/{revision:9 digits}/script.simba
//	imgs bucket:     scripts/{scriptID}/cover.jpg
//	                 scripts/{scriptID}/banner.jpg
//	packages bucket: {package}/{version}/...
package objectkey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RevisionWidth is the zero-padded width of the revision path segment.
const RevisionWidth = 9

// MaxRevision is the largest revision that fits in RevisionWidth digits.
const MaxRevision = 999999999

const scriptFileName = "script.simba"

// Script returns the key of a script file revision.
func Script(scriptID uuid.UUID, revision int) string {
	return fmt.Sprintf("%s/%s/%s", scriptID, PadRevision(revision), scriptFileName)
}

// PadRevision renders revision zero-padded to RevisionWidth digits.
func PadRevision(revision int) string {
	return fmt.Sprintf("%0*d", RevisionWidth, revision)
}

// ParseScript splits a script file key into its id and revision.
func ParseScript(key string) (uuid.UUID, int, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[2] != scriptFileName || len(parts[1]) != RevisionWidth {
		return uuid.Nil, 0, fmt.Errorf("not a script key: %q", key)
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("invalid script id in key %q: %w", key, err)
	}
	revision, err := strconv.Atoi(parts[1])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("invalid revision in key %q: %w", key, err)
	}
	return id, revision, nil
}

// Cover returns the key of a script's cover image.
func Cover(scriptID uuid.UUID) string {
	return "scripts/" + scriptID.String() + "/cover.jpg"
}

// Banner returns the key of a script's banner image.
func Banner(scriptID uuid.UUID) string {
	return "scripts/" + scriptID.String() + "/banner.jpg"
}

// PackagePrefix returns the key prefix under which a package's versions live.
func PackagePrefix(name string) string {
	return strings.Trim(name, "/") + "/"
}

// PackageVersion extracts the version segment from a key below PackagePrefix(name).
func PackageVersion(name, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, PackagePrefix(name))
	if !ok {
		return "", false
	}
	version, _, _ := strings.Cut(rest, "/")
	if version == "" {
		return "", false
	}
	return version, true
}
