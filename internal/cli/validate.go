package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"callscribe/internal/config"
	"callscribe/internal/format"
	"callscribe/internal/pipeline"
)

// ValidateCmd creates the validate command, which probes an input file and
// reports its metadata without transcribing anything.
func ValidateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <audio-file>",
		Short: "Validate a call recording without transcribing it",
		Long: `Check that a recording is usable: the file exists, is within the size
limit, has a supported format, and is decodable. Prints the probed metadata
(duration, sample rate, channels) along with any warnings.`,
		Example: `  callscribe validate call.wav
  callscribe validate meeting.mp3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, env, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, env *Env, inputPath string) error {
	ctx := cmd.Context()

	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	validator := env.ValidatorFactory.NewValidator(cfg, ffmpegPath, env.Logger)
	result := validator.Validate(ctx, inputPath)

	md := result.Metadata
	fmt.Fprintf(env.Stdout, "File:        %s\n", inputPath)
	fmt.Fprintf(env.Stdout, "Size:        %s\n", format.Size(md.Size))
	if md.Format != "" {
		fmt.Fprintf(env.Stdout, "Format:      %s\n", md.Format)
	}
	if md.Duration > 0 {
		fmt.Fprintf(env.Stdout, "Duration:    %.1f minutes\n", md.Duration.Minutes())
	}
	if md.SampleRate > 0 {
		fmt.Fprintf(env.Stdout, "Sample rate: %d Hz\n", md.SampleRate)
	}
	if md.Channels > 0 {
		fmt.Fprintf(env.Stdout, "Channels:    %d\n", md.Channels)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(env.Stdout, "Warning:     %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(env.Stdout, "Error:       %s\n", e)
	}

	if !result.Valid {
		return fmt.Errorf("%w: %s", pipeline.ErrValidationFailed, inputPath)
	}
	fmt.Fprintln(env.Stdout, "OK")
	return nil
}
