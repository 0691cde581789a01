package transcoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hszk-dev/clipstream/internal/domain/model"
)

// FFmpegConfig holds configuration for the FFmpeg transcoder.
type FFmpegConfig struct {
	// FFmpegPath is the path to the ffmpeg binary.
	// If empty, "ffmpeg" will be used (assumes it's in PATH).
	FFmpegPath string

	// VideoCodec is the video codec to use.
	// Default: libx264
	VideoCodec string

	// VideoProfile is the H.264 profile. The baseline profile maximizes
	// playback compatibility across devices.
	// Default: baseline
	VideoProfile string

	// VideoLevel is the H.264 level constraint.
	// Default: 3.0
	VideoLevel string

	// AudioCodec is the audio codec to use.
	// Default: aac
	AudioCodec string

	// HLSPlaylistType sets the playlist type.
	// "vod" produces a full non-rolling playlist (adds EXT-X-ENDLIST).
	// Default: vod
	HLSPlaylistType string
}

// DefaultFFmpegConfig returns an FFmpegConfig with broadly compatible defaults.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:      "ffmpeg",
		VideoCodec:      "libx264",
		VideoProfile:    "baseline",
		VideoLevel:      "3.0",
		AudioCodec:      "aac",
		HLSPlaylistType: "vod",
	}
}

// FFmpegTranscoder implements Transcoder using the FFmpeg CLI.
type FFmpegTranscoder struct {
	config FFmpegConfig
	runner commandRunner
}

// Compile-time verification that FFmpegTranscoder implements Transcoder.
var _ Transcoder = (*FFmpegTranscoder)(nil)

// commandRunner abstracts subprocess execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// NewFFmpegTranscoder creates a new FFmpeg-based transcoder.
func NewFFmpegTranscoder(cfg FFmpegConfig) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		config: cfg,
		runner: execRunner{},
	}
}

// newFFmpegTranscoderWithRunner creates a transcoder with a given runner.
// This is used for dependency injection in tests.
func newFFmpegTranscoderWithRunner(cfg FFmpegConfig, r commandRunner) *FFmpegTranscoder {
	return &FFmpegTranscoder{config: cfg, runner: r}
}

// TranscodeToHLS converts the input video to a single HLS rendition.
// It executes FFmpeg as a subprocess and waits for completion; no process
// survives past the call.
func (t *FFmpegTranscoder) TranscodeToHLS(ctx context.Context, inputPath, outputDir string, params Params) (*Output, error) {
	if err := t.validateInput(inputPath); err != nil {
		return nil, err
	}

	if err := t.validateOutputDir(outputDir); err != nil {
		return nil, err
	}

	playlistPath := filepath.Join(outputDir, model.PlaylistFilename)
	segmentPattern := filepath.Join(outputDir, model.SegmentFilenamePattern)

	args := t.buildFFmpegArgs(inputPath, playlistPath, segmentPattern, params)

	if err := t.runner.Run(ctx, t.config.FFmpegPath, args...); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transcoding cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: ffmpeg execution: %v", ErrTranscodeFailed, err)
	}

	// A zero exit status without a playlist still counts as failure.
	if _, err := os.Stat(playlistPath); err != nil {
		return nil, fmt.Errorf("%w: playlist not produced", ErrTranscodeFailed)
	}

	segments, err := t.collectSegments(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to collect segments: %w", err)
	}

	return &Output{
		PlaylistPath: playlistPath,
		SegmentPaths: segments,
	}, nil
}

// validateInput checks if the input file exists and is readable.
func (t *FFmpegTranscoder) validateInput(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", inputPath)
	}

	return nil
}

// validateOutputDir checks if the output directory exists.
func (t *FFmpegTranscoder) validateOutputDir(outputDir string) error {
	info, err := os.Stat(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", outputDir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", outputDir)
	}

	return nil
}

// buildFFmpegArgs constructs the FFmpeg command arguments for a single
// fixed-resolution VOD rendition.
func (t *FFmpegTranscoder) buildFFmpegArgs(inputPath, playlistPath, segmentPattern string, params Params) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", params.Width, params.Height),
		"-c:v", t.config.VideoCodec,
		"-profile:v", t.config.VideoProfile,
		"-level", t.config.VideoLevel,
		"-c:a", t.config.AudioCodec,
		"-f", "hls",
		"-start_number", "0",
		"-hls_time", fmt.Sprintf("%d", params.SegmentDuration),
		"-hls_list_size", "0", // Include all segments in playlist
		"-hls_playlist_type", t.config.HLSPlaylistType,
		"-hls_segment_filename", segmentPattern,
		"-y", // Overwrite output files without asking
		playlistPath,
	}
}

// collectSegments finds all generated .ts segment files in the output
// directory. Lexicographic order matches the zero-padded production order.
func (t *FFmpegTranscoder) collectSegments(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".ts") {
			segments = append(segments, filepath.Join(outputDir, entry.Name()))
		}
	}
	sort.Strings(segments)

	return segments, nil
}
