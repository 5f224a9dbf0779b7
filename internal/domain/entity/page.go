package entity

import "time"

// Surface describes where things live on the remote portal.
type Surface struct {
	LandingURL string `mapstructure:"landing_url" yaml:"landing_url"`
	LoginToken string `mapstructure:"login_token" yaml:"login_token"`

	UsernameSelector    string   `mapstructure:"username_selector" yaml:"username_selector"`
	PasswordSelector    string   `mapstructure:"password_selector" yaml:"password_selector"`
	LoginSubmitSelector string   `mapstructure:"login_submit_selector" yaml:"login_submit_selector"`
	AlertSelector       string   `mapstructure:"alert_selector" yaml:"alert_selector"`
	LoginFailurePhrases []string `mapstructure:"login_failure_phrases" yaml:"login_failure_phrases"`

	LandingMarker        string   `mapstructure:"landing_marker" yaml:"landing_marker"`
	CardSelector         string   `mapstructure:"card_selector" yaml:"card_selector"`
	CardTitleSelector    string   `mapstructure:"card_title_selector" yaml:"card_title_selector"`
	CardDescSelector     string   `mapstructure:"card_desc_selector" yaml:"card_desc_selector"`
	CompletedMarker      string   `mapstructure:"completed_marker" yaml:"completed_marker"`
	FacilitiesPhrases    []string `mapstructure:"facilities_phrases" yaml:"facilities_phrases"`
	FacilitiesRefTokens  []string `mapstructure:"facilities_ref_tokens" yaml:"facilities_ref_tokens"`
	HeadingSelector      string   `mapstructure:"heading_selector" yaml:"heading_selector"`
	RatingSelector       string   `mapstructure:"rating_selector" yaml:"rating_selector"`
	StarSelector         string   `mapstructure:"star_selector" yaml:"star_selector"`
	TextAreaSelector     string   `mapstructure:"textarea_selector" yaml:"textarea_selector"`
	CheckboxSelector     string   `mapstructure:"checkbox_selector" yaml:"checkbox_selector"`
	ButtonSelector       string   `mapstructure:"button_selector" yaml:"button_selector"`
	SubmitLabel          string   `mapstructure:"submit_label" yaml:"submit_label"`
	NextLabel            string   `mapstructure:"next_label" yaml:"next_label"`
	DialogSelector       string   `mapstructure:"dialog_selector" yaml:"dialog_selector"`
	DialogActionSelector string   `mapstructure:"dialog_action_selector" yaml:"dialog_action_selector"`
	SuggestionHeading    string   `mapstructure:"suggestion_heading" yaml:"suggestion_heading"`
}

func DefaultSurface() Surface {
	return Surface{
		LandingURL: "https://studentportal.ipb.ac.id/Akademik/EPBM/Detail",
		LoginToken: "login",

		UsernameSelector:    "#Username",
		PasswordSelector:    "#Password",
		LoginSubmitSelector: "button[type='submit']",
		AlertSelector:       ".alert.alert-danger",
		LoginFailurePhrases: []string{"Login gagal", "password Anda salah"},

		LandingMarker:        ".btn.card.small-box",
		CardSelector:         ".btn.card.small-box",
		CardTitleSelector:    ".card-header h4",
		CardDescSelector:     ".card-header p",
		CompletedMarker:      ".fa-check-circle.text-success",
		FacilitiesPhrases:    []string{"Sarana dan Prasarana"},
		FacilitiesRefTokens:  []string{"sarpras"},
		HeadingSelector:      "h5",
		RatingSelector:       ".b-rating",
		StarSelector:         ".b-rating-star",
		TextAreaSelector:     "textarea",
		CheckboxSelector:     "input[type='checkbox']",
		ButtonSelector:       "button",
		SubmitLabel:          "Simpan EPBM",
		NextLabel:            "Selanjutnya",
		DialogSelector:       ".modal-dialog",
		DialogActionSelector: ".modal-footer button, .modal button.btn, .modal .close",
		SuggestionHeading:    "7. Berikan saran untuk masing-masing dosen pengajar",
	}
}

// Timing holds the bounded waits and fixed settle pauses used against the portal.
type Timing struct {
	LoginFieldWait  time.Duration `mapstructure:"login_field_wait" yaml:"login_field_wait"`
	LoginSettle     time.Duration `mapstructure:"login_settle" yaml:"login_settle"`
	LandingWait     time.Duration `mapstructure:"landing_wait" yaml:"landing_wait"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	CardSettle      time.Duration `mapstructure:"card_settle" yaml:"card_settle"`
	ControlWait     time.Duration `mapstructure:"control_wait" yaml:"control_wait"`
	StarPause       time.Duration `mapstructure:"star_pause" yaml:"star_pause"`
	NextPause       time.Duration `mapstructure:"next_pause" yaml:"next_pause"`
	DialogWait      time.Duration `mapstructure:"dialog_wait" yaml:"dialog_wait"`
	ReturnWait      time.Duration `mapstructure:"return_wait" yaml:"return_wait"`
	RecoveryPause   time.Duration `mapstructure:"recovery_pause" yaml:"recovery_pause"`
}

func DefaultTiming() Timing {
	return Timing{
		LoginFieldWait:  10 * time.Second,
		LoginSettle:     3 * time.Second,
		LandingWait:     10 * time.Second,
		PageLoadTimeout: 15 * time.Second,
		CardSettle:      500 * time.Millisecond,
		ControlWait:     3 * time.Second,
		StarPause:       100 * time.Millisecond,
		NextPause:       300 * time.Millisecond,
		DialogWait:      3 * time.Second,
		ReturnWait:      8 * time.Second,
		RecoveryPause:   2 * time.Second,
	}
}
