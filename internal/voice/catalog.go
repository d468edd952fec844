package voice

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// DefaultFamily is the language family voices are resolved for when none is given.
const DefaultFamily = "en"

var (
	femaleVoiceNames = []string{"Zira", "Samantha", "Karen", "Victoria", "Susan"}
	maleVoiceNames   = []string{"David", "Mark", "Alex", "Daniel", "Fred", "George", "Ravi"}
)

// networkVoiceMarker identifies the platform's network-backed, higher quality engine.
const networkVoiceMarker = "Google"

// VoiceDescriptor is an immutable snapshot of one platform voice.
type VoiceDescriptor struct {
	Name   string `json:"name"`
	Lang   string `json:"lang"`
	Gender Gender `json:"gender"`
}

func NewVoiceDescriptor(name, lang string) VoiceDescriptor {
	name = strings.TrimSpace(name)
	return VoiceDescriptor{
		Name:   name,
		Lang:   strings.TrimSpace(lang),
		Gender: genderHint(name),
	}
}

// Family returns the primary language subtag of the voice.
func (v VoiceDescriptor) Family() string { return LanguageFamily(v.Lang) }

func (v VoiceDescriptor) sameAs(o VoiceDescriptor) bool {
	return v.Name == o.Name && v.Lang == o.Lang
}

// LanguageFamily returns the primary subtag of a BCP 47 tag ("en" for "en-US").
func LanguageFamily(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(tag); err == nil {
		base, _ := t.Base()
		return base.String()
	}
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

func genderHint(name string) Gender {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "female") || containsAny(name, femaleVoiceNames) {
		return GenderFemale
	}
	if strings.Contains(lower, "male") || containsAny(name, maleVoiceNames) {
		return GenderMale
	}
	return GenderUnknown
}

func isPreferredFemale(v VoiceDescriptor) bool {
	return strings.Contains(v.Name, "Female") || containsAny(v.Name, femaleVoiceNames)
}

func isNetworkVoice(v VoiceDescriptor) bool {
	return strings.Contains(v.Name, networkVoiceMarker)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// VoicePreference is the one selected voice shared by the catalog and synthesis.
// It lives for the session only.
type VoicePreference struct {
	voice *VoiceDescriptor
}

func (p *VoicePreference) Get() (VoiceDescriptor, bool) {
	if p == nil || p.voice == nil {
		return VoiceDescriptor{}, false
	}
	return *p.voice, true
}

func (p *VoicePreference) Set(v VoiceDescriptor) {
	p.voice = &v
}

func (p *VoicePreference) Clear() {
	p.voice = nil
}

// VoiceBucket groups voices of one language family for the picker.
type VoiceBucket struct {
	Family string            `json:"family"`
	Label  string            `json:"label"`
	Voices []VoiceDescriptor `json:"voices"`
}

// Available reports whether the bucket has at least one voice.
func (b VoiceBucket) Available() bool { return len(b.Voices) > 0 }

// SupportedFamilies lists the picker's language buckets in display order.
var SupportedFamilies = []struct {
	Family string
	Label  string
}{
	{Family: "en", Label: "English"},
	{Family: "hi", Label: "Hindi (हिंदी)"},
	{Family: "mr", Label: "Marathi (मराठी)"},
}

// Catalog keeps the platform's voice list and resolves the voice to speak with.
type Catalog struct {
	source VoiceSource
	pref   *VoicePreference
	voices []VoiceDescriptor
	logger *zap.Logger
}

func NewCatalog(source VoiceSource, pref *VoicePreference, logger *zap.Logger) *Catalog {
	if pref == nil {
		pref = &VoicePreference{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{source: source, pref: pref, logger: logger}
}

// Preference returns the shared preference the catalog writes on resolution.
func (c *Catalog) Preference() *VoicePreference { return c.pref }

// Refresh rebuilds the voice snapshot from the platform.
func (c *Catalog) Refresh() []VoiceDescriptor {
	var raw []VoiceDescriptor
	if c.source != nil {
		raw = c.source.Voices()
	}

	voices := make([]VoiceDescriptor, 0, len(raw))
	for _, v := range raw {
		d := NewVoiceDescriptor(v.Name, v.Lang)
		if d.Name == "" {
			continue
		}
		if v.Gender != "" {
			d.Gender = v.Gender
		}
		voices = append(voices, d)
	}
	c.voices = voices
	c.logger.Debug("voice catalog refreshed", zap.Int("voices", len(voices)))
	return c.Voices()
}

func (c *Catalog) Voices() []VoiceDescriptor {
	out := make([]VoiceDescriptor, len(c.voices))
	copy(out, c.voices)
	return out
}

// Resolve picks the voice for family. A resolved voice becomes the sticky preference.
func (c *Catalog) Resolve(family string) (VoiceDescriptor, bool) {
	if v, ok := c.pref.Get(); ok {
		return v, true
	}

	family = LanguageFamily(family)
	if family == "" {
		family = DefaultFamily
	}
	candidates := c.voicesFor(family)

	for _, match := range []func(VoiceDescriptor) bool{
		isPreferredFemale,
		isNetworkVoice,
		func(VoiceDescriptor) bool { return true },
	} {
		for _, v := range candidates {
			if match(v) {
				c.pref.Set(v)
				c.logger.Info("voice resolved", zap.String("voice", v.Name), zap.String("lang", v.Lang))
				return v, true
			}
		}
	}
	return VoiceDescriptor{}, false
}

// Lookup finds an installed voice by exact name.
func (c *Catalog) Lookup(name string) (VoiceDescriptor, error) {
	name = strings.TrimSpace(name)
	for _, v := range c.voices {
		if v.Name == name {
			return v, nil
		}
	}
	return VoiceDescriptor{}, ErrVoiceNotFound
}

// Select makes the named voice the preference.
func (c *Catalog) Select(name string) (VoiceDescriptor, error) {
	v, err := c.Lookup(name)
	if err != nil {
		return VoiceDescriptor{}, fmt.Errorf("select %q: %w", name, err)
	}
	c.pref.Set(v)
	return v, nil
}

func (c *Catalog) voicesFor(family string) []VoiceDescriptor {
	var out []VoiceDescriptor
	for _, v := range c.voices {
		if v.Family() == family {
			out = append(out, v)
		}
	}
	return out
}

// Buckets partitions the supported voices by language family.
func (c *Catalog) Buckets() []VoiceBucket {
	buckets := make([]VoiceBucket, 0, len(SupportedFamilies))
	for _, f := range SupportedFamilies {
		buckets = append(buckets, VoiceBucket{
			Family: f.Family,
			Label:  f.Label,
			Voices: c.voicesFor(f.Family),
		})
	}
	return buckets
}

// HasVoicesFor reports whether any installed voice belongs to family.
func (c *Catalog) HasVoicesFor(family string) bool {
	return len(c.voicesFor(LanguageFamily(family))) > 0
}

// RegionalVoicesMissing is true when neither Hindi nor Marathi voices are installed.
func (c *Catalog) RegionalVoicesMissing() bool {
	return !c.HasVoicesFor("hi") && !c.HasVoicesFor("mr")
}
