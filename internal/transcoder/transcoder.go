package transcoder

import (
	"context"
	"errors"
)

// ErrTranscodeFailed indicates the external transcode process exited non-zero
// or did not produce the expected playlist.
var ErrTranscodeFailed = errors.New("transcode failed")

// Params controls a single HLS transcoding invocation.
type Params struct {
	// SegmentDuration is the target duration of each HLS segment in seconds.
	SegmentDuration int
	// Width and Height are the target output resolution in pixels.
	Width  int
	Height int
}

// Output contains the result of an HLS transcoding operation.
type Output struct {
	// PlaylistPath is the path to the generated playlist.m3u8 file.
	PlaylistPath string
	// SegmentPaths contains paths to all generated .ts segment files,
	// in production order.
	SegmentPaths []string
}

// Transcoder defines the interface for video transcoding operations.
//
// Implementations run a single synchronous invocation of an external tool:
// either the full segment set and playlist appear in outputDir, or the call
// fails. The caller owns outputDir and is responsible for cleaning it up in
// all cases; implementations must not leave the external process running past
// the call.
type Transcoder interface {
	// TranscodeToHLS converts an input video file to a single fixed-resolution
	// HLS rendition: playlist.m3u8 plus segment_NNN.ts files in outputDir.
	// The output directory must exist before calling this method.
	TranscodeToHLS(ctx context.Context, inputPath, outputDir string, params Params) (*Output, error)
}
