package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"tonearm/internal/textutil"
)

// VersionQuery reports the version and tag of the binary at path. A zero
// version means the tool could not be asked.
type VersionQuery func(ctx context.Context, path string) (uint32, string)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

const versionTimeout = 3 * time.Second

// PackVersion encodes major.minor.patch as major<<16 | minor<<8 | patch.
// Minor and patch are clamped to 255.
func PackVersion(major, minor, patch int) uint32 {
	return uint32(max(major, 0))<<16 | uint32(min(max(minor, 0), 255))<<8 | uint32(min(max(patch, 0), 255))
}

// FormatVersion renders a packed version; zero and UnknownVersion render empty.
func FormatVersion(version uint32) string {
	if version == 0 || version == UnknownVersion {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", version>>16, (version>>8)&0xFF, version&0xFF)
}

// ParseVersion extracts the first dotted version from tool output. The tag is
// the line it was found on.
func ParseVersion(output []byte) (uint32, string) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := textutil.Simplify(scanner.Text())
		m := versionPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		patch, _ := strconv.Atoi(m[3])
		return PackVersion(major, minor, patch), line
	}
	return 0, ""
}

// QueryVersion runs `path --version` and parses whatever the tool prints.
// The exit status is ignored; several codec tools exit non-zero after
// printing their banner.
func QueryVersion(ctx context.Context, path string) (uint32, string) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.WaitDelay = time.Second
	out, _ := cmd.CombinedOutput()
	return ParseVersion(out)
}
