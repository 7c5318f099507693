package diff

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/juparave/researchnote/internal/domain"
)

// TruncationMarker is appended to patches cut by Truncate
const TruncationMarker = "... [truncated]"

// ParseNameStatus parses `git show --name-status` output into changed files
// (without patches). Lines look like "M\tpath" or "R100\told\tnew".
func ParseNameStatus(output []byte) ([]domain.ChangedFile, error) {
	var files []domain.ChangedFile

	s := bufio.NewScanner(bytes.NewReader(output))
	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		file := domain.ChangedFile{
			Filename: parts[len(parts)-1],
			Status:   statusFromCode(parts[0]),
		}
		if len(parts) >= 3 {
			file.PreviousFilename = parts[1]
		}
		files = append(files, file)
	}

	return files, s.Err()
}

func statusFromCode(code string) domain.ChangeType {
	if code == "" {
		return domain.ChangeModified
	}
	switch code[0] {
	case 'A':
		return domain.ChangeAdded
	case 'D':
		return domain.ChangeRemoved
	case 'R':
		return domain.ChangeRenamed
	case 'C':
		return domain.ChangeCopied
	case 'T':
		return domain.ChangeChanged
	default:
		return domain.ChangeModified
	}
}

// Hunks drops the `diff --git`/index/---/+++ preamble so a local patch has
// the same shape as the hosting API's per-file patch. A diff without hunks
// (binary files, pure mode changes) becomes empty.
func Hunks(patch string) string {
	idx := strings.Index(patch, "@@")
	if idx == -1 {
		return ""
	}
	// only cut at a hunk header that starts a line
	if idx > 0 && patch[idx-1] != '\n' {
		nl := strings.Index(patch, "\n@@")
		if nl == -1 {
			return ""
		}
		idx = nl + 1
	}
	return strings.TrimRight(patch[idx:], "\n")
}

// IsBinary reports whether git described the change as binary
func IsBinary(patch string) bool {
	return strings.Contains(patch, "Binary files ") && !strings.Contains(patch, "@@")
}

// Truncate keeps at most maxLines lines of patch. maxLines <= 0 disables it.
func Truncate(patch string, maxLines int) string {
	if maxLines <= 0 || patch == "" {
		return patch
	}

	lines := strings.Split(patch, "\n")
	if len(lines) <= maxLines {
		return patch
	}
	return strings.Join(lines[:maxLines], "\n") +
		fmt.Sprintf("\n%s (%d of %d lines shown)", TruncationMarker, maxLines, len(lines))
}
