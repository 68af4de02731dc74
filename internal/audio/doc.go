// Package audio defines the buffer type shared by the renderer, the WAV
// codec, and playback, plus the Engine contract the mixer drives. The mixer
// treats the engine as a black box: anything that can place clips in time,
// report a transport position, and answer metering queries satisfies it.
package audio
