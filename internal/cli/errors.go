package cli

import "errors"

// CLI-specific sentinel errors.
// These are usage/setup errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set while the openai
	// engine is selected.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrUnsupportedEngine indicates an unrecognized engine name in config.
	ErrUnsupportedEngine = errors.New("unsupported engine")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")
)
