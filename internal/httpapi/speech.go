package httpapi

import (
	"net/http"
	"strings"

	"github.com/ent0n29/coachvoice/internal/voice"
)

const maxSanitizeBody = 64 << 10

type familySummary struct {
	Family       string `json:"family"`
	Label        string `json:"label"`
	LanguageName string `json:"language_name"`
}

type listFamiliesResponse struct {
	DefaultLanguage string          `json:"default_language"`
	DefaultFamily   string          `json:"default_family"`
	Families        []familySummary `json:"families"`
}

func (s *Server) handleListFamilies(w http.ResponseWriter, _ *http.Request) {
	families := make([]familySummary, 0, len(voice.SupportedFamilies))
	for _, f := range voice.SupportedFamilies {
		families = append(families, familySummary{
			Family:       f.Family,
			Label:        f.Label,
			LanguageName: voice.LanguageName(f.Family),
		})
	}
	respondJSON(w, http.StatusOK, listFamiliesResponse{
		DefaultLanguage: s.cfg.DefaultLanguage,
		DefaultFamily:   voice.DefaultFamily,
		Families:        families,
	})
}

type sanitizeRequest struct {
	Text string `json:"text"`
}

type sanitizeResponse struct {
	SpeechText string `json:"speech_text"`
	Speakable  bool   `json:"speakable"`
}

// handleSanitize previews what the speech engine would be given for a reply.
func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSanitizeBody)
	var req sanitizeRequest
	if err := decodeJSON(r, &req); err != nil {
		if strings.Contains(err.Error(), "too large") {
			respondError(w, http.StatusRequestEntityTooLarge, "text_too_large", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.metrics.SanitizeRequests.Inc()
	out := voice.SanitizeSpeechText(req.Text)
	respondJSON(w, http.StatusOK, sanitizeResponse{SpeechText: out, Speakable: out != ""})
}
