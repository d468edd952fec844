package voice

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestLanguageFamily(t *testing.T) {
	cases := map[string]string{
		"en-US":      "en",
		"en":         "en",
		"hi_IN":      "hi",
		"MR-in":      "mr",
		"zh-Hant-TW": "zh",
		"  ":         "",
	}
	for in, want := range cases {
		if got := LanguageFamily(in); got != want {
			t.Fatalf("LanguageFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenderHint(t *testing.T) {
	cases := []struct {
		name string
		want Gender
	}{
		{"Microsoft Zira Desktop", GenderFemale},
		{"Google UK English Female", GenderFemale},
		{"Samantha", GenderFemale},
		{"Google UK English Male", GenderMale},
		{"Microsoft David Desktop", GenderMale},
		{"Lekha", GenderUnknown},
	}
	for _, tc := range cases {
		if got := NewVoiceDescriptor(tc.name, "en-US").Gender; got != tc.want {
			t.Fatalf("gender of %q = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCatalogResolvePreferenceChain(t *testing.T) {
	cases := []struct {
		name   string
		voices []VoiceDescriptor
		family string
		want   string
	}{
		{"curated female first", []VoiceDescriptor{voiceGoogle, voiceDavid, voiceZira}, "en", voiceZira.Name},
		{"network voice second", []VoiceDescriptor{voiceDavid, voiceGoogle}, "en", voiceGoogle.Name},
		{"any voice of the family", []VoiceDescriptor{voiceLekha, voiceDavid}, "", voiceDavid.Name},
		{"family other than english", []VoiceDescriptor{voiceZira, voiceLekha}, "hi-IN", voiceLekha.Name},
		{"nothing for the family", []VoiceDescriptor{voiceLekha}, "en", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			pref := &VoicePreference{}
			c := NewCatalog(NewMockPlatform(tc.voices...), pref, zaptest.NewLogger(t))
			c.Refresh()

			got, ok := c.Resolve(tc.family)
			if tc.want == "" {
				if ok {
					t.Fatalf("Resolve(%q) = %q, want unset", tc.family, got.Name)
				}
				if _, set := pref.Get(); set {
					t.Fatalf("preference written without a match")
				}
				return
			}
			if !ok || got.Name != tc.want {
				t.Fatalf("Resolve(%q) = %q (%v), want %q", tc.family, got.Name, ok, tc.want)
			}
			if p, _ := pref.Get(); p.Name != tc.want {
				t.Fatalf("preference = %q, want %q", p.Name, tc.want)
			}
		})
	}
}

func TestCatalogResolveIsSticky(t *testing.T) {
	platform := NewMockPlatform(voiceDavid, voiceZira)
	c := NewCatalog(platform, nil, zaptest.NewLogger(t))
	c.Refresh()

	first, ok := c.Resolve("en")
	if !ok || first.Name != voiceZira.Name {
		t.Fatalf("first Resolve = %q, want %q", first.Name, voiceZira.Name)
	}

	platform.SetVoices(voiceGoogle, VoiceDescriptor{Name: "Karen", Lang: "en-AU"})
	c.Refresh()

	second, ok := c.Resolve("en")
	if !ok || second != first {
		t.Fatalf("second Resolve = %+v, want sticky %+v", second, first)
	}
}

func TestCatalogRefreshSkipsUnnamedVoices(t *testing.T) {
	c := NewCatalog(NewMockPlatform(
		VoiceDescriptor{Name: "  ", Lang: "en-US"},
		VoiceDescriptor{Name: " Custom ", Lang: "en-GB", Gender: GenderMale},
	), nil, nil)

	voices := c.Refresh()
	if len(voices) != 1 {
		t.Fatalf("Refresh() returned %d voices, want 1", len(voices))
	}
	if voices[0].Name != "Custom" || voices[0].Gender != GenderMale {
		t.Fatalf("voice = %+v, want trimmed name and platform gender", voices[0])
	}
}

func TestCatalogSelect(t *testing.T) {
	c := NewCatalog(NewMockPlatform(voiceZira, voiceDavid), nil, nil)
	c.Refresh()

	if _, err := c.Select("Nope"); !errors.Is(err, ErrVoiceNotFound) {
		t.Fatalf("Select(Nope) error = %v, want ErrVoiceNotFound", err)
	}
	if _, set := c.Preference().Get(); set {
		t.Fatalf("failed select wrote the preference")
	}

	v, err := c.Select(voiceDavid.Name)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got, _ := c.Resolve("en"); got != v {
		t.Fatalf("Resolve after Select = %q, want %q", got.Name, v.Name)
	}
}

func TestCatalogBuckets(t *testing.T) {
	c := NewCatalog(NewMockPlatform(voiceZira, voiceDavid, voiceMarathi), nil, nil)
	c.Refresh()

	buckets := c.Buckets()
	if len(buckets) != 3 {
		t.Fatalf("Buckets() len = %d, want 3", len(buckets))
	}
	want := []struct {
		family string
		count  int
	}{{"en", 2}, {"hi", 0}, {"mr", 1}}
	for i, w := range want {
		if buckets[i].Family != w.family || len(buckets[i].Voices) != w.count {
			t.Fatalf("bucket %d = %s/%d, want %s/%d", i, buckets[i].Family, len(buckets[i].Voices), w.family, w.count)
		}
		if buckets[i].Available() != (w.count > 0) {
			t.Fatalf("bucket %s Available() = %v", w.family, buckets[i].Available())
		}
	}
	if c.RegionalVoicesMissing() {
		t.Fatalf("RegionalVoicesMissing() = true with a Marathi voice installed")
	}

	c = NewCatalog(NewMockPlatform(voiceZira), nil, nil)
	c.Refresh()
	if !c.RegionalVoicesMissing() {
		t.Fatalf("RegionalVoicesMissing() = false with only English voices")
	}
}
