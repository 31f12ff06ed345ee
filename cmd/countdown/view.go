package countdown

// View is what the overlay renders. It is a pure function of State.
type View struct {
	Phase           Phase  `json:"phase"`
	Remaining       string `json:"remaining"`
	RemainingMillis int64  `json:"remaining_ms"`
	Title           string `json:"title"`

	NowPlaying       string `json:"now_playing"`
	HasTrack         bool   `json:"has_track"`
	SongChanged      bool   `json:"song_changed"`
	NowPlayingHidden bool   `json:"now_playing_hidden"`

	PromotionActive bool   `json:"promotion_active"`
	PromotionVideo  string `json:"promotion_video,omitempty"`

	Finished bool `json:"finished"`
}

// NewView derives the rendered view of s.
func NewView(s State, title string) View {
	remaining := s.Remaining
	if remaining < 0 {
		remaining = 0
	}

	v := View{
		Phase:            s.Phase,
		Remaining:        FormatRemaining(remaining),
		RemainingMillis:  remaining.Milliseconds(),
		Title:            title,
		NowPlaying:       s.NowPlaying,
		HasTrack:         s.HasTrack,
		SongChanged:      s.SongChanged && remaining >= SongChangedMinLeft,
		NowPlayingHidden: remaining <= NowPlayingHideAt,
		PromotionActive:  s.Promotion == PromotionPlaying && s.PromotionVideo != "",
		Finished:         s.Phase == PhaseFinished,
	}
	if s.Promotion != PromotionPending {
		v.PromotionVideo = s.PromotionVideo
	}
	return v
}
