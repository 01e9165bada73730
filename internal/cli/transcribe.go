package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"callscribe/internal/config"
	"callscribe/internal/lang"
)

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output       string
		modelSize    string
		engine       string
		workers      int
		chunkMinutes int
		language     string
		timestamps   bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a call recording",
		Long: `Transcribe a call recording to text.

The audio is validated, normalized, split into fixed-duration chunks when it
exceeds the chunk duration, and transcribed chunk by chunk. Failed segments
appear as inline [ERROR] markers instead of aborting the whole job.

Engines: whisper (local, default) or openai (remote API).`,
		Example: `  callscribe transcribe call.wav
  callscribe transcribe call.mp3 -o transcript.txt
  callscribe transcribe call.wav --model-size small --workers 2
  callscribe transcribe call.wav --engine openai --language fr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], output, modelSize, engine, workers, chunkMinutes, language, timestamps)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&modelSize, "model-size", "", "Whisper model size: base, small, medium")
	cmd.Flags().StringVar(&engine, "engine", "", "Inference engine: whisper, openai")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Max concurrent chunk workers (1-4)")
	cmd.Flags().IntVar(&chunkMinutes, "chunk-minutes", 0, "Maximum chunk duration in minutes")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Fallback language hint (ISO 639-1 code)")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "Render one timestamped segment per line")

	return cmd
}

// runTranscribe executes the transcription pipeline.
func runTranscribe(cmd *cobra.Command, env *Env, inputPath, output, modelSize, engine string, workers, chunkMinutes int, language string, timestamps bool) error {
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

	// Flags override file and environment configuration.
	if modelSize != "" {
		cfg.ModelSize = modelSize
	}
	if engine != "" {
		cfg.Engine = engine
	}
	if workers > 0 {
		cfg.MaxWorkers = workers
	}
	if chunkMinutes > 0 {
		cfg.ChunkDuration = time.Duration(chunkMinutes) * time.Minute
	}
	if language != "" {
		if err := lang.Validate(language); err != nil {
			return err
		}
		// Engines only accept base codes, so pt-BR becomes pt.
		cfg.Language = lang.BaseCode(language)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	runner, err := env.PipelineBuilder.Build(env, cfg, ffmpegPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stderr, "Transcribing...")
	result, err := runner.Run(ctx, inputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Transcription complete (job %s)\n", result.JobID)

	rendered := result.Render()
	if timestamps {
		rendered = result.RenderTimestamps()
	}
	if output == "" {
		fmt.Fprintln(env.Stdout, rendered)
		return nil
	}
	return writeOutput(output, rendered)
}

// writeOutput writes the transcript, refusing to overwrite an existing file.
func writeOutput(path, content string) error {
	// O_EXCL atomically checks existence and creates the file.
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content + "\n"); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}
