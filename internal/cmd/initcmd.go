package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/config"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project file interactively",
	Long: `Create an appforge.yaml project file through interactive terminal
forms: project identity, requirements, and the generation backend.

Example:
  appforge init
  appforge init --force`,
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing project file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	var (
		projectName  string
		description  string
		requirements string
		provider     string
		model        string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Placeholder("my-app").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("project name is required")
					}
					return nil
				}).
				Value(&projectName),
			huh.NewInput().
				Title("Description").
				Placeholder("A todo app with authentication").
				Value(&description),
			huh.NewText().
				Title("Requirements (one per line)").
				Value(&requirements),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Generation backend").
				Options(
					huh.NewOption("Anthropic", string(backend.ProviderAnthropic)),
					huh.NewOption("OpenAI", string(backend.ProviderOpenAI)),
				).
				Value(&provider),
			huh.NewInput().
				Title("Model (empty for the provider default)").
				Value(&model),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("init cancelled: %w", err)
	}

	var reqs []string
	for _, line := range strings.Split(requirements, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			reqs = append(reqs, line)
		}
	}

	cfg := &config.Config{
		Request: pipeline.Request{
			ProjectName:  projectName,
			Description:  description,
			Requirements: reqs,
		},
		Backends: []backend.Config{
			{Provider: backend.Provider(provider), Model: model},
		},
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Printf("Set your API key: export %s_API_KEY=...\n", strings.ToUpper(provider))
	fmt.Println("Then run: appforge generate")
	return nil
}
