package playlist

import (
	"errors"
	"math/rand/v2"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// AudioExt is the only extension the waiting room plays.
const AudioExt = ".mp3"

// URLPrefix is where the audio library is served from.
const URLPrefix = "/waiting_audios/"

var ErrEmptyLibrary = errors.New("audio library is empty")

var extPattern = regexp.MustCompile(`(?i)\.mp3`)

// Track is one selection from the audio library.
type Track struct {
	Index int    // Position in the library
	File  string // Library entry, relative to the audio directory
	Name  string // Display name (directory and extension stripped)
	URL   string // Escaped path the page loads
}

// Scheduler hands out an endless, shuffled sequence of tracks in which the
// same track never plays twice in a row (unless there is only one).
type Scheduler struct {
	files []string
	prev  int
	intn  func(n int) int
}

// New creates a scheduler over files. intn returns a value in [0, n);
// nil uses math/rand/v2.
func New(files []string, intn func(n int) int) *Scheduler {
	if intn == nil {
		intn = rand.IntN
	}
	return &Scheduler{
		files: append([]string(nil), files...),
		prev:  -1,
		intn:  intn,
	}
}

// Len returns the number of tracks in the library.
func (s *Scheduler) Len() int {
	return len(s.files)
}

// Previous returns the index of the last track handed out, or -1.
func (s *Scheduler) Previous() int {
	return s.prev
}

// Reset forgets the previous selection, restarting the sequence.
func (s *Scheduler) Reset() {
	s.prev = -1
}

// Next picks the next track. It returns false when the library is empty.
func (s *Scheduler) Next() (Track, bool) {
	idx, err := s.nextIndex()
	if err != nil {
		return Track{}, false
	}
	s.prev = idx
	return NewTrack(idx, s.files[idx]), true
}

func (s *Scheduler) nextIndex() (int, error) {
	switch len(s.files) {
	case 0:
		return 0, ErrEmptyLibrary
	case 1:
		return 0, nil
	}

	for {
		n := s.intn(len(s.files))
		if n != s.prev {
			return n, nil
		}
	}
}

// NewTrack builds the display name and served URL for a library entry.
func NewTrack(index int, file string) Track {
	return Track{
		Index: index,
		File:  file,
		Name:  DisplayName(file),
		URL:   TrackURL(file),
	}
}

// DisplayName strips any directory and everything from the first ".mp3" on.
func DisplayName(file string) string {
	base := path.Base(file)
	if loc := extPattern.FindStringIndex(base); loc != nil {
		return base[:loc[0]]
	}
	return base
}

// TrackURL returns the escaped URL of a library entry. The extension is
// normalised to .mp3 the same way the display name is derived.
func TrackURL(file string) string {
	dir := path.Dir(file)
	name := DisplayName(file) + AudioExt
	rel := name
	if dir != "." {
		rel = dir + "/" + name
	}
	u := url.URL{Path: URLPrefix + strings.TrimPrefix(rel, "/")}
	return u.EscapedPath()
}
