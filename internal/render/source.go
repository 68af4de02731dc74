package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"soundlab/internal/audio"
	"soundlab/internal/timeline"
	"soundlab/internal/wav"
)

// DirSource resolves clip audio from WAV files in an asset directory,
// looking up <asset id>.wav first and then the basename of the clip's audio
// URL. Decoded buffers are cached for the lifetime of the source. Clips
// without a resolvable file render as silence.
type DirSource struct {
	dir string

	mu    sync.Mutex
	cache map[string]*audio.Buffer
}

// NewDirSource builds a source over the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir, cache: make(map[string]*audio.Buffer)}
}

// ClipBuffer implements Source.
func (s *DirSource) ClipBuffer(clip *timeline.Clip) (*audio.Buffer, error) {
	for _, name := range s.candidates(clip) {
		if buf := s.load(name); buf != nil {
			return buf, nil
		}
	}
	return nil, nil
}

func (s *DirSource) candidates(clip *timeline.Clip) []string {
	var names []string
	if clip.AssetID != "" {
		names = append(names, clip.AssetID+".wav")
	}
	if clip.AudioURL != "" {
		base := filepath.Base(clip.AudioURL)
		if strings.HasSuffix(strings.ToLower(base), ".wav") {
			names = append(names, base)
		}
	}
	return names
}

func (s *DirSource) load(name string) *audio.Buffer {
	s.mu.Lock()
	if buf, ok := s.cache[name]; ok {
		s.mu.Unlock()
		return buf
	}
	s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil
	}
	buf, err := wav.Decode(data)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	s.cache[name] = buf
	s.mu.Unlock()
	return buf
}
