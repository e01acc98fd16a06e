package models

import "time"

// Script sections rendered in order for a standard-mode video.
const (
	SectionIntro        = "intro"
	SectionCaseOverview = "case_overview"
	SectionPriceInfo    = "price_info"
	SectionLocation     = "location_analysis"
	SectionDetails      = "property_details"
	SectionLegalNotes   = "legal_notes"
	SectionClosing      = "closing"
)

// SectionOrder is the fixed narration order of a standard-mode script.
var SectionOrder = []string{
	SectionIntro,
	SectionCaseOverview,
	SectionPriceInfo,
	SectionLocation,
	SectionDetails,
	SectionLegalNotes,
	SectionClosing,
}

// NarrationSegment is the spoken text for one scene plus its synthesized
// audio. AudioPath is empty until synthesis completes; Duration then drives
// the owning scene's display duration.
type NarrationSegment struct {
	Text      string
	AudioPath string
	Duration  time.Duration
}

// Scene is one visual unit of the output video: an image, its narration and
// the computed display duration. Scenes are ephemeral, created per job run
// and discarded after assembly.
type Scene struct {
	Index     int
	Section   string
	ImagePath string
	Narration NarrationSegment
	Duration  time.Duration
}
