package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// WAV decoding for the local engine. The pipeline's own ffmpeg stages emit
// 16 kHz mono s16le WAV, so only that shape needs supporting here.

// ErrBadWAV indicates the file is not a supported PCM WAV.
var ErrBadWAV = errors.New("not a supported PCM WAV file")

// readWAVSamples reads a 16-bit PCM WAV file and returns float32 samples in
// the range [-1, 1], as the whisper bindings expect.
func readWAVSamples(path string) ([]float32, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is an internal chunk file
	if err != nil {
		return nil, err
	}

	pcm, err := extractPCM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return convertPCMToFloat32(pcm), nil
}

// extractPCM locates the data chunk of a RIFF/WAVE container and verifies
// the format chunk describes 16-bit PCM.
func extractPCM(data []byte) ([]byte, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrBadWAV
	}

	var pcm []byte
	sawFmt := false

	// Walk the chunk list: 4-byte ID, 4-byte little-endian size, payload.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			size = len(data) - body // truncated final chunk, take what exists
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrBadWAV
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			bitsPerSample := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if audioFormat != 1 || bitsPerSample != 16 {
				return nil, fmt.Errorf("%w: format=%d bits=%d", ErrBadWAV, audioFormat, bitsPerSample)
			}
			sawFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if !sawFmt || pcm == nil {
		return nil, ErrBadWAV
	}
	return pcm, nil
}

// convertPCMToFloat32 converts 16-bit little-endian PCM to float32 samples.
func convertPCMToFloat32(pcm []byte) []float32 {
	numSamples := len(pcm) / 2
	samples := make([]float32, numSamples)

	for i := 0; i < numSamples; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}

	return samples
}
