package voice

// Role says why an utterance is spoken.
type Role string

const (
	RoleWelcome        Role = "welcome"
	RoleAssistantReply Role = "assistant_reply"
	RoleUserEcho       Role = "user_echo"
	RoleVoiceTest      Role = "voice_test"
)

// Profile is a rate/pitch/volume preset.
type Profile struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

var (
	ConversationalProfile = Profile{Rate: 0.9, Pitch: 1.05, Volume: 1.0}
	WelcomeProfile        = Profile{Rate: 0.85, Pitch: 1.10, Volume: 1.0}
	VoiceTestProfile      = Profile{Rate: 0.95, Pitch: 1.1, Volume: 1.0}
)

// ProfileFor returns the preset used for role.
func ProfileFor(role Role) Profile {
	switch role {
	case RoleWelcome:
		return WelcomeProfile
	case RoleVoiceTest:
		return VoiceTestProfile
	default:
		return ConversationalProfile
	}
}

// Utterance is one unit of synthesized speech. ID is assigned by Synthesis.
type Utterance struct {
	ID     string
	Text   string
	Rate   float64
	Pitch  float64
	Volume float64
	Voice  *VoiceDescriptor
	Role   Role
}

// NewUtterance builds an utterance with the role's profile and no fixed voice.
func NewUtterance(text string, role Role) Utterance {
	p := ProfileFor(role)
	return Utterance{
		Text:   text,
		Rate:   p.Rate,
		Pitch:  p.Pitch,
		Volume: p.Volume,
		Role:   role,
	}
}
