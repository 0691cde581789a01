package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestVideoIDFromFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
		wantErr  bool
	}{
		{
			name:     "strips extension",
			fileName: "clip.mp4",
			want:     "clip",
		},
		{
			name:     "keeps inner dots",
			fileName: "my.holiday.video.mov",
			want:     "my.holiday.video",
		},
		{
			name:     "no extension",
			fileName: "rawvideo",
			want:     "rawvideo",
		},
		{
			name:     "uses base name only",
			fileName: "uploads/clip.mp4",
			want:     "clip",
		},
		{
			name:     "empty",
			fileName: "",
			wantErr:  true,
		},
		{
			name:     "extension only",
			fileName: ".mp4",
			wantErr:  true,
		},
		{
			name:     "traversal base",
			fileName: "..",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VideoIDFromFileName(tt.fileName)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got id %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestValidatePathComponent(t *testing.T) {
	valid := []string{"clip", "segment_000.ts", "playlist.m3u8", "a.b.c"}
	for _, s := range valid {
		if err := ValidatePathComponent(s); err != nil {
			t.Errorf("ValidatePathComponent(%q): unexpected error %v", s, err)
		}
	}

	invalid := []string{"", ".", "..", "a/b", `a\b`, "../etc/passwd", "a..b"}
	for _, s := range invalid {
		if err := ValidatePathComponent(s); err == nil {
			t.Errorf("ValidatePathComponent(%q): expected error", s)
		}
	}
}

func TestContentTypeForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"playlist.m3u8", ContentTypePlaylist},
		{"PLAYLIST.M3U8", ContentTypePlaylist},
		{"segment_000.ts", ContentTypeSegment},
		{"segment_042.TS", ContentTypeSegment},
		{"thumbnail.jpg", ContentTypeBinary},
		{"noextension", ContentTypeBinary},
	}

	for _, tt := range tests {
		if got := ContentTypeForFilename(tt.filename); got != tt.want {
			t.Errorf("ContentTypeForFilename(%q): got %q, expected %q", tt.filename, got, tt.want)
		}
	}
}

func TestIsArtifactFilename(t *testing.T) {
	matching := []string{"playlist.m3u8", "segment_000.ts", "segment_999.ts"}
	for _, s := range matching {
		if !IsArtifactFilename(s) {
			t.Errorf("IsArtifactFilename(%q): expected true", s)
		}
	}

	stray := []string{"master.m3u8", "segment_0.ts", "segment_0000.ts", "input.mp4", "notes.txt", "segment_abc.ts"}
	for _, s := range stray {
		if IsArtifactFilename(s) {
			t.Errorf("IsArtifactFilename(%q): expected false", s)
		}
	}
}

func TestSortedArtifactNames(t *testing.T) {
	got := SortedArtifactNames([]string{
		"segment_001.ts",
		"stray.txt",
		"playlist.m3u8",
		"segment_000.ts",
	})
	want := []string{"playlist.m3u8", "segment_000.ts", "segment_001.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, expected %v", got, want)
	}
}

func TestValidateArtifactSet(t *testing.T) {
	playlist := []byte("#EXTM3U\n#EXTINF:10.0,\nsegment_000.ts\n#EXTINF:10.0,\nsegment_001.ts\n#EXT-X-ENDLIST\n")

	tests := []struct {
		name    string
		files   []StoredFile
		wantErr error
	}{
		{
			name: "complete set",
			files: []StoredFile{
				{Filename: "segment_000.ts"},
				{Filename: "segment_001.ts"},
				{Filename: "playlist.m3u8", Content: playlist},
			},
		},
		{
			name:    "empty set",
			files:   nil,
			wantErr: ErrEmptyArtifactSet,
		},
		{
			name: "missing playlist",
			files: []StoredFile{
				{Filename: "segment_000.ts"},
			},
			wantErr: ErrMissingPlaylist,
		},
		{
			name: "duplicate playlist",
			files: []StoredFile{
				{Filename: "segment_000.ts"},
				{Filename: "segment_001.ts"},
				{Filename: "playlist.m3u8", Content: playlist},
				{Filename: "playlist.m3u8", Content: playlist},
			},
			wantErr: ErrDuplicatePlaylist,
		},
		{
			name: "playlist references missing segment",
			files: []StoredFile{
				{Filename: "segment_000.ts"},
				{Filename: "playlist.m3u8", Content: playlist},
			},
			wantErr: nil, // checked separately below: any non-nil error
		},
		{
			name: "unsafe filename",
			files: []StoredFile{
				{Filename: "../playlist.m3u8", Content: playlist},
			},
			wantErr: ErrUnsafeFilename,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArtifactSet(tt.files)
			switch tt.name {
			case "complete set":
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			case "playlist references missing segment":
				if err == nil {
					t.Error("expected error for dangling segment reference")
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, expected %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestPlaylistSegmentRefs(t *testing.T) {
	playlist := []byte("#EXTM3U\n#EXT-X-VERSION:3\n\n#EXTINF:10.0,\nsegment_000.ts\n#EXTINF:4.2,\nsegment_001.ts\n#EXT-X-ENDLIST\n")

	got := PlaylistSegmentRefs(playlist)
	want := []string{"segment_000.ts", "segment_001.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, expected %v", got, want)
	}
}
