package model

import "testing"

func TestItemIsShort(t *testing.T) {
	tests := []struct {
		name      string
		duration  int
		threshold int
		want      bool
	}{
		{name: "regular video", duration: 120, threshold: 60, want: false},
		{name: "short", duration: 45, threshold: 60, want: true},
		{name: "exactly at threshold", duration: 60, threshold: 60, want: false},
		{name: "unknown duration counts as short", duration: 0, threshold: 60, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := Item{ID: "x", DurationSeconds: tt.duration}
			if got := it.IsShort(tt.threshold); got != tt.want {
				t.Errorf("IsShort(%d) with duration %d: got %v want %v", tt.threshold, tt.duration, got, tt.want)
			}
		})
	}
}

func TestSourceFeedURL(t *testing.T) {
	ch := Source{Key: "somecreator", Kind: KindChannel}
	if got, want := ch.FeedURL(), "https://www.youtube.com/@somecreator/videos"; got != want {
		t.Fatalf("channel feed URL: got %q want %q", got, want)
	}

	withAt := Source{Key: "@somecreator", Kind: KindChannel}
	if got := withAt.FeedURL(); got != ch.FeedURL() {
		t.Fatalf("handle with @ prefix should normalize: got %q", got)
	}

	pl := Source{Key: "https://youtube.com/playlist?list=PL123", Kind: KindPlaylist}
	if got := pl.FeedURL(); got != pl.Key {
		t.Fatalf("playlist URL should pass through: got %q", got)
	}
}

func TestHistoryEntryContains(t *testing.T) {
	h := HistoryEntry{DownloadedItems: []DownloadRecord{{ID: "v1"}, {ID: "v2"}}}
	if !h.Contains("v1") {
		t.Fatal("expected v1 in history")
	}
	if h.Contains("v3") {
		t.Fatal("did not expect v3 in history")
	}
}
