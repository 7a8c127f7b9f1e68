package model

import "time"

// MinScore is the score floor below which hits are excluded
const MinScore = 1.0

// RetrieveOptions configures a retrieval query.
// Boosts of the lexical fields and of the dense terms are summed without normalization,
// so they have to be calibrated jointly for the hybrid mode.
type RetrieveOptions struct {
	Mode       string `json:"retrieve_mode" toml:"retrieve_mode"`
	RetrieveNb int    `json:"retrieve_nb" toml:"retrieve_nb"`
	Language   string `json:"language" toml:"language"`

	// Lexical field boosts
	BoostTitle         float64 `json:"boost_title" toml:"boost_title"`
	BoostContent       float64 `json:"boost_content" toml:"boost_content"`
	BoostPage          float64 `json:"boost_page" toml:"boost_page"`
	BoostLem           float64 `json:"boost_lem" toml:"boost_lem"`
	BoostPageLem       float64 `json:"boost_page_lem" toml:"boost_page_lem"`
	BoostParentTitle   float64 `json:"boost_parent_title" toml:"boost_parent_title"`
	BoostParentContent float64 `json:"boost_parent_content" toml:"boost_parent_content"`

	// Dense boosts
	BoostContentEmbedding float64 `json:"boost_content_embedding" toml:"boost_content_embedding"`
	BoostTitleEmbedding   float64 `json:"boost_title_embedding" toml:"boost_title_embedding"`
	BoostParentEmbedding  float64 `json:"boost_parent_embedding" toml:"boost_parent_embedding"`
	BoostDate             float64 `json:"boost_date" toml:"boost_date"`

	// Gaussian decay on first_seen_date
	DecayScale  Duration `json:"decay_scale" toml:"decay_scale"`
	DecayOffset Duration `json:"decay_offset" toml:"decay_offset"`
	DecayRate   float64  `json:"decay_rate" toml:"decay_rate"`
}

// DefaultRetrieveOptions returns the options used when none are configured
func DefaultRetrieveOptions() RetrieveOptions {
	return RetrieveOptions{
		Mode:                  "hybrid",
		RetrieveNb:            5,
		Language:              "fr",
		BoostTitle:            3,
		BoostContent:          1,
		BoostPage:             1,
		BoostLem:              2,
		BoostPageLem:          1,
		BoostParentTitle:      2,
		BoostParentContent:    1,
		BoostContentEmbedding: 1,
		BoostTitleEmbedding:   1,
		BoostParentEmbedding:  1,
		BoostDate:             1,
		DecayScale:            Duration(30 * 24 * time.Hour),
		DecayOffset:           0,
		DecayRate:             0.5,
	}
}

// Duration is a time.Duration read from text such as "720h" in config files
type Duration time.Duration

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
