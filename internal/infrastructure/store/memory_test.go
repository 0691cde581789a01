package store

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	files := testArtifactSet(t, "segment_000.ts", "segment_001.ts")
	if err := s.Put(ctx, "clip", files); err != nil {
		t.Fatalf("Put: %v", err)
	}

	for _, want := range files {
		got, err := s.Get(ctx, "clip", want.Filename)
		if err != nil {
			t.Fatalf("Get(%q): %v", want.Filename, err)
		}
		if !bytes.Equal(got.Content, want.Content) {
			t.Errorf("Get(%q): content mismatch", want.Filename)
		}
	}

	want := []string{"playlist.m3u8", "segment_000.ts", "segment_001.ts"}
	if got := s.List(ctx, "clip"); !reflect.DeepEqual(got, want) {
		t.Errorf("List: got %v, expected %v", got, want)
	}

	stats := s.Stats(ctx)
	if stats.TotalVideos != 1 || stats.TotalFiles != 3 {
		t.Errorf("Stats: got %+v", stats)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "ghost", "playlist.m3u8"); err != repository.ErrArtifactNotFound {
		t.Errorf("Get: got %v, expected ErrArtifactNotFound", err)
	}
	if s.Exists(ctx, "ghost") {
		t.Error("Exists: expected false")
	}
	if err := s.Delete(ctx, "ghost"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Put(ctx, "clip", testArtifactSet(t, "segment_000.ts")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "clip", "segment_000.ts")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Content[0] = 'X'

	again, err := s.Get(ctx, "clip", "segment_000.ts")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Content[0] == 'X' {
		t.Error("mutating a returned file must not affect stored content")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			videoID := fmt.Sprintf("clip-%d", n)
			for j := 0; j < 25; j++ {
				if err := s.Put(ctx, videoID, testArtifactSet(t, "segment_000.ts")); err != nil {
					t.Errorf("Put: %v", err)
					return
				}
				_, _ = s.Get(ctx, videoID, "playlist.m3u8")
				_ = s.List(ctx, videoID)
				_ = s.Stats(ctx)
				if err := s.Delete(ctx, videoID); err != nil {
					t.Errorf("Delete: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
