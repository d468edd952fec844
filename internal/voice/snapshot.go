package voice

// BucketSummary is one language family row in the picker.
type BucketSummary struct {
	Family    string `json:"family"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
	Available bool   `json:"available"`
}

// PickerSnapshot is a read-only view of the voice and language pickers.
type PickerSnapshot struct {
	CurrentVoice          *VoiceDescriptor  `json:"current_voice,omitempty"`
	Voices                []VoiceDescriptor `json:"voices"`
	Language              string            `json:"language"`
	LanguageName          string            `json:"language_name"`
	Buckets               []BucketSummary   `json:"buckets"`
	RegionalVoicesMissing bool              `json:"regional_voices_missing"`
	VoiceEnabled          bool              `json:"voice_enabled"`
	SynthesisState        SynthesisState    `json:"synthesis_state"`
	CaptureState          CaptureState      `json:"capture_state"`
}

// Snapshot reports the picker state without changing anything.
func (c *Coordinator) Snapshot() PickerSnapshot {
	snap := PickerSnapshot{
		Voices:                c.catalog.Voices(),
		Language:              c.recognition.Language(),
		LanguageName:          LanguageLabel(c.recognition.Language()),
		RegionalVoicesMissing: c.catalog.RegionalVoicesMissing(),
		VoiceEnabled:          c.voiceEnabled,
		SynthesisState:        c.synthesis.State(),
		CaptureState:          c.recognition.State(),
	}
	if v, ok := c.catalog.Preference().Get(); ok {
		snap.CurrentVoice = &v
	}
	for _, b := range c.catalog.Buckets() {
		snap.Buckets = append(snap.Buckets, BucketSummary{
			Family:    b.Family,
			Label:     b.Label,
			Count:     len(b.Voices),
			Available: b.Available(),
		})
	}
	return snap
}
