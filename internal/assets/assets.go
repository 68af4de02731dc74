// Package assets handles the audio asset descriptors the mixer consumes:
// the JSON drag-and-drop payload, waveform peak extraction, and display
// title derivation.
package assets

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"soundlab/internal/audio"
	"soundlab/internal/timeline"
)

// DragMIMEType is the drag-data channel carrying asset descriptors.
const DragMIMEType = "application/x-soundlab-asset+json"

// Descriptor is the drag-and-drop asset payload.
type Descriptor struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Duration float64   `json:"duration"`
	AudioURL string    `json:"audioUrl,omitempty"`
	Waveform []float64 `json:"waveformData,omitempty"`
	Name     string    `json:"name"`
}

// ParseDragPayload decodes a drag payload. Malformed JSON and descriptors
// without an id return ok=false; callers ignore the drop.
func ParseDragPayload(payload []byte) (Descriptor, bool) {
	var desc Descriptor
	if err := json.Unmarshal(payload, &desc); err != nil {
		return Descriptor{}, false
	}
	if strings.TrimSpace(desc.ID) == "" {
		return Descriptor{}, false
	}
	return desc, true
}

// Lane maps the asset's own type onto a timeline lane when it matches one;
// otherwise the lane under the cursor wins.
func (d Descriptor) Lane(cursorLane timeline.Lane) timeline.Lane {
	if lane, ok := timeline.ParseLane(d.Type); ok {
		return lane
	}
	return cursorLane
}

// WaveformPeaks reduces a decoded buffer to per-bucket peak amplitudes for
// clip rendering. Returns nil for empty buffers.
func WaveformPeaks(buf *audio.Buffer, buckets int) []float64 {
	if buf == nil || buf.Frames() == 0 || buckets <= 0 {
		return nil
	}
	frames := buf.Frames()
	out := make([]float64, buckets)
	span := frames / buckets
	if span == 0 {
		span = 1
	}
	for i := 0; i < buckets; i++ {
		from := i * span
		if from >= frames {
			break
		}
		out[i] = buf.Peak(from, span)
	}
	return out
}

// DisplayTitle cleans a raw asset or session name into a presentable title:
// separators become spaces and words are title-cased.
func DisplayTitle(raw string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(title)
}
