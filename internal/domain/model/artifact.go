package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	// PlaylistFilename is the fixed name of the HLS playlist within a video namespace.
	PlaylistFilename = "playlist.m3u8"

	// SegmentFilenamePattern is the ffmpeg-style pattern for segment files.
	SegmentFilenamePattern = "segment_%03d.ts"
)

// Content types served for HLS artifacts.
const (
	ContentTypePlaylist = "application/vnd.apple.mpegurl"
	ContentTypeSegment  = "video/mp2t"
	ContentTypeBinary   = "application/octet-stream"
)

var (
	ErrEmptyFileName    = errors.New("file name cannot be empty")
	ErrUnsafeVideoID    = errors.New("video ID contains path separators or traversal sequences")
	ErrUnsafeFilename   = errors.New("filename contains path separators or traversal sequences")
	ErrEmptyArtifactSet  = errors.New("artifact set must contain at least one file")
	ErrMissingPlaylist   = errors.New("artifact set must contain a playlist")
	ErrDuplicatePlaylist = errors.New("artifact set contains more than one playlist")
)

// segmentNameRe matches segment files produced by the transcoder (segment_000.ts, ...).
var segmentNameRe = regexp.MustCompile(`^segment_\d{3}\.ts$`)

// StoredFile is a single named artifact within a video namespace.
// Filename is a bare name with no path components.
type StoredFile struct {
	Filename    string
	Content     []byte
	ContentType string
}

// StorageStats summarizes the artifact store contents.
type StorageStats struct {
	TotalVideos int `json:"totalVideos"`
	TotalFiles  int `json:"totalFiles"`
}

// VideoIDFromFileName derives the storage namespace from an uploaded file name:
// the base name with its extension stripped. Re-uploading the same name
// overwrites the prior artifact set (last write wins).
func VideoIDFromFileName(fileName string) (string, error) {
	if fileName == "" {
		return "", ErrEmptyFileName
	}

	base := filepath.Base(fileName)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if id == "" || id == "." {
		return "", ErrEmptyFileName
	}

	if err := ValidatePathComponent(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsafeVideoID, fileName)
	}

	return id, nil
}

// ValidatePathComponent rejects values that could escape a single-level
// namespace: empty strings, path separators, and traversal sequences.
func ValidatePathComponent(s string) error {
	if s == "" || s == "." || s == ".." {
		return ErrUnsafeFilename
	}
	if strings.ContainsAny(s, `/\`) {
		return ErrUnsafeFilename
	}
	if strings.Contains(s, "..") {
		return ErrUnsafeFilename
	}
	return nil
}

// ContentTypeForFilename maps an artifact filename to its HTTP content type
// based purely on extension.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".m3u8":
		return ContentTypePlaylist
	case ".ts":
		return ContentTypeSegment
	default:
		return ContentTypeBinary
	}
}

// IsArtifactFilename reports whether a filename belongs to the HLS artifact
// naming convention (the playlist or a zero-padded segment). Stray files in a
// namespace are filtered out by the store using this predicate.
func IsArtifactFilename(filename string) bool {
	return filename == PlaylistFilename || segmentNameRe.MatchString(filename)
}

// SortedArtifactNames returns the artifact filenames in lexicographic order,
// which for the segment naming convention is also production order.
func SortedArtifactNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsArtifactFilename(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// ValidateArtifactSet checks the invariants of a committed artifact set:
// non-empty, exactly one playlist, and every segment the playlist references
// present in the set.
func ValidateArtifactSet(files []StoredFile) error {
	if len(files) == 0 {
		return ErrEmptyArtifactSet
	}

	var playlist *StoredFile
	present := make(map[string]bool, len(files))
	for i := range files {
		f := &files[i]
		if err := ValidatePathComponent(f.Filename); err != nil {
			return fmt.Errorf("%w: %q", ErrUnsafeFilename, f.Filename)
		}
		present[f.Filename] = true
		if f.Filename == PlaylistFilename {
			if playlist != nil {
				return ErrDuplicatePlaylist
			}
			playlist = f
		}
	}
	if playlist == nil {
		return ErrMissingPlaylist
	}

	for _, ref := range PlaylistSegmentRefs(playlist.Content) {
		if !present[ref] {
			return fmt.Errorf("playlist references missing segment %q", ref)
		}
	}

	return nil
}

// PlaylistSegmentRefs extracts the segment filenames referenced by an m3u8
// playlist body, in playlist order. Tag lines (#...) and blanks are skipped.
func PlaylistSegmentRefs(playlist []byte) []string {
	var refs []string
	for _, line := range strings.Split(string(playlist), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	return refs
}
