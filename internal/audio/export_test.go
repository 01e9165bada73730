package audio

// Internal functions exposed for black-box tests.

var (
	ParseDurationFromFFmpegOutput = parseDurationFromFFmpegOutput
	ParseTimeComponents           = parseTimeComponents
	ParseStreamInfo               = parseStreamInfo
	ParseChannelLayout            = parseChannelLayout
	ParseContainerFormat          = parseContainerFormat
	FormatFFmpegTime              = formatFFmpegTime
)

// StreamInfo mirrors the unexported streamInfo for assertions.
type StreamInfo = streamInfo

// Fields accessors for streamInfo in external tests.
func (s streamInfo) SampleRate() int { return s.sampleRate }
func (s streamInfo) Channels() int  { return s.channels }
func (s streamInfo) BitDepth() int  { return s.bitDepth }
