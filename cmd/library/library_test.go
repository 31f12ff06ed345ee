package library

import (
	"bytes"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func assets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	touch(t, root,
		"waiting_audios/a.mp3",
		"waiting_audios/b.mp3",
		"waiting_audios/notes.txt",
		"waiting_audios/upper.MP3",
		"waiting_audios/copyrighted_audios/c.mp3",
		"waiting_audios/copyrighted_audios/d.mp3",
		"promotion_videos/sponsor.mp4",
	)
	return root
}

func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

func TestParseWaitConfig(t *testing.T) {
	tests := []struct {
		name        string
		q           url.Values
		wantMinutes int
		wantCopy    bool
	}{
		{"omitted", query(), 2, false},
		{"zero", query(ParamWait, "0"), 2, false},
		{"garbage", query(ParamWait, "soon"), 2, false},
		{"negative", query(ParamWait, "-5"), 2, false},
		{"nan", query(ParamWait, "NaN"), 2, false},
		{"infinite", query(ParamWait, "Inf"), 2, false},
		{"fraction truncates", query(ParamWait, "4.9"), 4, false},
		{"below a minute", query(ParamWait, "0.5"), 2, false},
		{"ten", query(ParamWait, "10"), 10, false},
		{"padded", query(ParamWait, " 7 "), 7, false},
		{"copyright on", query(ParamCopyrighted, "1"), 2, true},
		{"copyright true is not 1", query(ParamCopyrighted, "true"), 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseWaitConfig(tt.q)
			if got.WaitMinutes != tt.wantMinutes {
				t.Errorf("WaitMinutes = %d, want %d", got.WaitMinutes, tt.wantMinutes)
			}
			if got.IncludeCopyrighted != tt.wantCopy {
				t.Errorf("IncludeCopyrighted = %v, want %v", got.IncludeCopyrighted, tt.wantCopy)
			}
		})
	}
}

func TestGatherShortWaitHasNoPromotions(t *testing.T) {
	root := assets(t)
	for _, wait := range []string{"1", "2"} {
		data, err := Gather(root, query(ParamWait, wait))
		if err != nil {
			t.Fatalf("Gather: %v", err)
		}
		if len(data.Promotions) != 0 {
			t.Errorf("timewait=%s: promotions = %v, want none", wait, data.Promotions)
		}
	}
}

func TestGatherLongWait(t *testing.T) {
	root := assets(t)
	data, err := Gather(root, query(ParamWait, "10"))
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(data.Promotions) < 1 {
		t.Errorf("expected at least one promotion")
	}
	if data.WaitMillis != 600000 {
		t.Errorf("WaitMillis = %d, want 600000", data.WaitMillis)
	}
	if data.Wait() != 10*time.Minute {
		t.Errorf("Wait = %v", data.Wait())
	}
}

func TestGatherThresholdIsInclusive(t *testing.T) {
	data, err := Gather(assets(t), query(ParamWait, "3"))
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if !slices.Equal(data.Promotions, []string{"sponsor.mp4"}) {
		t.Errorf("promotions = %v", data.Promotions)
	}
}

func TestGatherDefaultWait(t *testing.T) {
	for _, q := range []url.Values{query(), query(ParamWait, "0")} {
		data, err := Gather(assets(t), q)
		if err != nil {
			t.Fatalf("Gather: %v", err)
		}
		if data.WaitMillis != 120000 {
			t.Errorf("WaitMillis = %d, want 120000", data.WaitMillis)
		}
		if len(data.Promotions) != 0 {
			t.Errorf("promotions = %v, want none", data.Promotions)
		}
	}
}

func TestGatherFiltersAudio(t *testing.T) {
	data, err := Gather(assets(t), query())
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if want := []string{"a.mp3", "b.mp3"}; !slices.Equal(data.Audios, want) {
		t.Errorf("audios = %v, want %v", data.Audios, want)
	}
}

func TestGatherCopyrighted(t *testing.T) {
	root := assets(t)
	base, err := Gather(root, query())
	if err != nil {
		t.Fatal(err)
	}
	with, err := Gather(root, query(ParamCopyrighted, "1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(with.Audios) != len(base.Audios)+2 {
		t.Fatalf("audios = %v, want base + 2", with.Audios)
	}
	if !slices.Contains(with.Audios, "copyrighted_audios/c.mp3") {
		t.Errorf("copyrighted entries should keep their directory: %v", with.Audios)
	}
}

func TestGatherCopyrightedMissingDir(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "waiting_audios/a.mp3")
	data, err := Gather(root, query(ParamCopyrighted, "1"))
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(data.Audios) != 1 {
		t.Errorf("audios = %v", data.Audios)
	}
}

func TestGatherMissingAudioDir(t *testing.T) {
	_, err := Gather(t.TempDir(), query())
	if !errors.Is(err, ErrNoAudioDir) {
		t.Errorf("err = %v, want ErrNoAudioDir", err)
	}
}

func TestGatherMissingPromotionDir(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "waiting_audios/a.mp3")

	if _, err := Gather(root, query(ParamWait, "2")); err != nil {
		t.Errorf("short wait should not look for promotions: %v", err)
	}
	if _, err := Gather(root, query(ParamWait, "5")); err == nil {
		t.Error("expected error for missing promotion directory")
	}
}

func TestGatherSkipsPromotionSubdirs(t *testing.T) {
	root := assets(t)
	touch(t, root, "promotion_videos/archive/old.mp4", "promotion_videos/.DS_Store")
	data, err := Gather(root, query(ParamWait, "5"))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(data.Promotions, []string{"sponsor.mp4"}) {
		t.Errorf("promotions = %v", data.Promotions)
	}
}

func TestRunTable(t *testing.T) {
	var buf bytes.Buffer
	err := run(&Params{Assets: assets(t), TimeWait: "10", Copyright: true}, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"/waiting_audios/a.mp3", "/waiting_audios/copyrighted_audios/c.mp3", "sponsor.mp4", "600000 ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&Params{Assets: assets(t), TimeWait: "2", JSON: true}, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), `"wait_ms": 120000`) {
		t.Errorf("unexpected JSON:\n%s", buf.String())
	}
}

func TestOverlayURL(t *testing.T) {
	tests := []struct {
		addr      string
		wait      int
		copyright bool
		want      string
	}{
		{"127.0.0.1:3000", 2, false, "http://127.0.0.1:3000/?timewait=2"},
		{"0.0.0.0:3000", 10, true, "http://localhost:3000/?copyrightSongs=1&timewait=10"},
		{":8080", 0, false, "http://localhost:8080/"},
		{"[::]:3000", 5, false, "http://localhost:3000/?timewait=5"},
		{"obs.lan:3000", 3, false, "http://obs.lan:3000/?timewait=3"},
	}
	for _, tt := range tests {
		if got := OverlayURL(tt.addr, tt.wait, tt.copyright); got != tt.want {
			t.Errorf("OverlayURL(%q, %d, %v) = %q, want %q", tt.addr, tt.wait, tt.copyright, got, tt.want)
		}
	}
}
