package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/client"
	"github.com/felixgeelhaar/appforge/internal/config"
	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/projection"
	"github.com/felixgeelhaar/appforge/internal/stream"
	"github.com/felixgeelhaar/appforge/internal/tui"
	"github.com/felixgeelhaar/appforge/internal/ux"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the application sources",
	Long: `Generate all source files for the project described in appforge.yaml.

By default the run executes locally against the configured backend. With
--server the request is sent to a running appforge server instead and
progress is consumed from its event stream.

Example:
  # Generate locally into ./src
  appforge generate --out src

  # Generate through a remote server with the live view
  appforge generate --server http://forge.internal:8080 --tui`,
	RunE: runGenerate,
}

var (
	generateServer  string
	generateOut     string
	generateTUI     bool
	generatePrint   bool
	generateTimeout time.Duration
	generateNoColor bool
)

func init() {
	generateCmd.Flags().StringVar(&generateServer, "server", "", "Generate through a remote appforge server at this base URL")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Directory to write generated files into")
	generateCmd.Flags().BoolVar(&generateTUI, "tui", false, "Show the live progress view")
	generateCmd.Flags().BoolVar(&generatePrint, "print", false, "Print generated sources to stdout")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", client.DefaultTimeout, "Overall ceiling for the whole run")
	generateCmd.Flags().BoolVar(&generateNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), generateTimeout)
	defer cancel()

	renderer := ux.NewRenderer(os.Stdout, generateNoColor)

	run := localRun(cfg)
	if generateServer != "" {
		run = remoteRun(generateServer, cfg.Request)
	}

	var result *stream.GenerationResult
	if generateTUI {
		result, err = tui.Generate(ctx, cfg.Request.ProjectName, run)
	} else {
		timeline := projection.NewTimeline()
		result, err = run(ctx, func(ev stream.Event) {
			timeline.Apply(ev)
			renderer.Event(ev)
		})
	}
	if err != nil {
		renderer.Error(err)
		return err
	}

	renderer.Summary(result)

	if generatePrint {
		renderer.WriteSources(result)
	}
	if generateOut != "" {
		if err := writeArtifacts(generateOut, result); err != nil {
			renderer.Error(err)
			return err
		}
	}
	return nil
}

type runFunc func(ctx context.Context, emit func(stream.Event)) (*stream.GenerationResult, error)

// localRun executes the pipeline in-process against the configured backend.
// An explicit project layout in the file skips the analysis phase.
func localRun(cfg *config.Config) runFunc {
	return func(ctx context.Context, emit func(stream.Event)) (*stream.GenerationResult, error) {
		bc, err := backend.New(cfg.DefaultBackend())
		if err != nil {
			return nil, err
		}
		defer bc.Close()

		p := pipeline.New(bc)
		if cfg.Project != nil {
			return p.RunWithConfig(ctx, cfg.Request, *cfg.Project, emit)
		}
		return p.Run(ctx, cfg.Request, emit)
	}
}

// remoteRun sends the request to a running server and consumes its stream.
func remoteRun(baseURL string, req pipeline.Request) runFunc {
	return func(ctx context.Context, emit func(stream.Event)) (*stream.GenerationResult, error) {
		return client.New(baseURL).Generate(ctx, req, emit)
	}
}

// writeArtifacts materializes the generated sources under dir.
func writeArtifacts(dir string, result *stream.GenerationResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileReadFailed, "create output directory", err)
	}
	for _, artifact := range result.Phases {
		path := filepath.Join(dir, artifact.Filename)
		if err := os.WriteFile(path, []byte(artifact.Source), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeFileReadFailed, "write "+path, err)
		}
	}
	return nil
}
