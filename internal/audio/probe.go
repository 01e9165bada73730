package audio

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Probe parsing for ffmpeg diagnostic output. ffmpeg writes stream and
// duration info to stderr; ffprobe may not be installed alongside it, so the
// pipeline parses ffmpeg output directly.

// durationRe matches "Duration: 00:05:23.45" in ffmpeg output.
var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// timeRe matches "time=00:05:23.45" from ffmpeg progress output.
var timeRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)

// parseDurationFromFFmpegOutput extracts duration from ffmpeg stderr.
// Looks for "Duration: HH:MM:SS.ms" first, then the last "time=HH:MM:SS.ms".
func parseDurationFromFFmpegOutput(output string) (time.Duration, error) {
	if matches := durationRe.FindStringSubmatch(output); matches != nil {
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4]), nil
	}

	allMatches := timeRe.FindAllStringSubmatch(output, -1)
	if len(allMatches) > 0 {
		matches := allMatches[len(allMatches)-1]
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4]), nil
	}

	return 0, ErrNoDuration
}

// parseTimeComponents converts HH:MM:SS.frac strings to a Duration.
func parseTimeComponents(hours, minutes, seconds, fractional string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	// Normalize the fractional part to milliseconds.
	// ffmpeg emits 1-6+ digits (".4", ".45", ".456789").
	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n == 3:
		// Already milliseconds.
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// audioStreamRe matches the audio stream line, e.g.
//
//	Stream #0:0: Audio: pcm_s16le ([1][0][0][0] / 0x0001), 16000 Hz, mono, s16, 256 kb/s
var audioStreamRe = regexp.MustCompile(`Audio:\s*([^,]+),\s*(\d+)\s*Hz,\s*([^,]+),\s*(\w+)`)

// inputFormatRe matches the container line, e.g. "Input #0, wav, from 'x.wav':".
var inputFormatRe = regexp.MustCompile(`Input #\d+,\s*([^,]+),`)

// channelsRe matches an explicit channel count like "6 channels".
var channelsRe = regexp.MustCompile(`(\d+)\s*channels`)

// sampleFormatBits maps ffmpeg sample format names to bit depths.
var sampleFormatBits = map[string]int{
	"u8":   8,
	"u8p":  8,
	"s16":  16,
	"s16p": 16,
	"s32":  32,
	"s32p": 32,
	"flt":  32,
	"fltp": 32,
	"dbl":  64,
	"dblp": 64,
}

// streamInfo holds the fields parsed from an ffmpeg audio stream line.
type streamInfo struct {
	sampleRate int
	channels   int
	bitDepth   int
}

// parseStreamInfo extracts sample rate, channel count, and bit depth from
// ffmpeg probe output. Returns false when no audio stream line is present.
func parseStreamInfo(output string) (streamInfo, bool) {
	matches := audioStreamRe.FindStringSubmatch(output)
	if matches == nil {
		return streamInfo{}, false
	}

	info := streamInfo{}
	info.sampleRate, _ = strconv.Atoi(matches[2])
	info.channels = parseChannelLayout(matches[3])
	info.bitDepth = sampleFormatBits[strings.TrimSpace(matches[4])]

	return info, true
}

// parseChannelLayout converts an ffmpeg channel layout description to a count.
func parseChannelLayout(layout string) int {
	layout = strings.TrimSpace(layout)
	switch layout {
	case "mono":
		return 1
	case "stereo":
		return 2
	}
	if matches := channelsRe.FindStringSubmatch(layout); matches != nil {
		n, _ := strconv.Atoi(matches[1])
		return n
	}
	// Layouts like "5.1(side)" report speaker positions.
	if strings.HasPrefix(layout, "5.1") {
		return 6
	}
	if strings.HasPrefix(layout, "7.1") {
		return 8
	}
	return 1
}

// parseContainerFormat extracts the container name from the Input line.
// ffmpeg may report a demuxer list ("mov,mp4,m4a,3gp,3g2,mj2"); the regex
// keeps the first entry. Returns empty string when no Input line is present.
func parseContainerFormat(output string) string {
	matches := inputFormatRe.FindStringSubmatch(output)
	if matches == nil {
		return ""
	}
	return strings.TrimSpace(matches[1])
}
