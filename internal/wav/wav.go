// Package wav serializes audio buffers into canonical 16-bit PCM RIFF/WAVE
// files and decodes them back. The encoder is deterministic: the same
// buffer always yields byte-identical output.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"soundlab/internal/audio"
)

const headerSize = 44

var (
	// ErrFormat marks input that is not a PCM RIFF/WAVE stream.
	ErrFormat = errors.New("wav: malformed stream")
)

// Encode produces a 44-byte RIFF/WAVE header followed by interleaved 16-bit
// signed little-endian samples. Input samples are clamped to [-1,1] and
// scaled by 0x8000 (negative) or 0x7FFF (non-negative) before truncation.
func Encode(buf *audio.Buffer) []byte {
	channels := buf.Channels()
	frames := buf.Frames()
	dataSize := frames * channels * 2
	out := make([]byte, headerSize+dataSize)

	byteRate := buf.SampleRate * channels * 2
	blockAlign := channels * 2

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	offset := headerSize
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			sample := float64(buf.Data[ch][frame])
			if sample > 1 {
				sample = 1
			} else if sample < -1 {
				sample = -1
			}
			var value int16
			if sample < 0 {
				value = int16(sample * 0x8000)
			} else {
				value = int16(sample * 0x7FFF)
			}
			binary.LittleEndian.PutUint16(out[offset:offset+2], uint16(value))
			offset += 2
		}
	}
	return out
}

// Decode parses a 16-bit PCM RIFF/WAVE stream back into a buffer. Streams
// with compressed formats or truncated chunks return ErrFormat.
func Decode(data []byte) (*audio.Buffer, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrFormat)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrFormat)
	}
	if string(data[12:16]) != "fmt " {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrFormat)
	}
	if format := binary.LittleEndian.Uint16(data[20:22]); format != 1 {
		return nil, fmt.Errorf("%w: unsupported format code %d", ErrFormat, format)
	}
	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	bits := binary.LittleEndian.Uint16(data[34:36])
	if channels < 1 || bits != 16 {
		return nil, fmt.Errorf("%w: unsupported geometry (%d channels, %d bits)", ErrFormat, channels, bits)
	}
	if string(data[36:40]) != "data" {
		return nil, fmt.Errorf("%w: missing data chunk", ErrFormat)
	}
	dataSize := int(binary.LittleEndian.Uint32(data[40:44]))
	if dataSize > len(data)-headerSize {
		return nil, fmt.Errorf("%w: truncated data chunk", ErrFormat)
	}

	frames := dataSize / (channels * 2)
	buf := audio.NewBuffer(channels, frames, sampleRate)
	offset := headerSize
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(data[offset : offset+2]))
			var sample float64
			if raw < 0 {
				sample = float64(raw) / 0x8000
			} else {
				sample = float64(raw) / 0x7FFF
			}
			buf.Data[ch][frame] = float32(math.Max(-1, math.Min(1, sample)))
			offset += 2
		}
	}
	return buf, nil
}
