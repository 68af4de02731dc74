package audio

import "math"

// Buffer is decoded or rendered audio: per-channel float samples in [-1,1]
// at a fixed sample rate. Channels always hold equal-length slices.
type Buffer struct {
	SampleRate int
	Data       [][]float32
}

// NewBuffer allocates a silent buffer with the given geometry.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	if frames < 0 {
		frames = 0
	}
	data := make([][]float32, channels)
	for i := range data {
		data[i] = make([]float32, frames)
	}
	return &Buffer{SampleRate: sampleRate, Data: data}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.Data) }

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Peak returns the largest absolute sample across all channels within the
// frame window [from, from+count).
func (b *Buffer) Peak(from, count int) float64 {
	var peak float64
	for _, channel := range b.Data {
		end := from + count
		if end > len(channel) {
			end = len(channel)
		}
		for i := max(from, 0); i < end; i++ {
			if v := math.Abs(float64(channel[i])); v > peak {
				peak = v
			}
		}
	}
	return peak
}
