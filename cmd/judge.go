package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ensemblecv/cv-judge/internal/consensus"
	"github.com/ensemblecv/cv-judge/internal/ingest"
	"github.com/ensemblecv/cv-judge/internal/judge"
	"github.com/ensemblecv/cv-judge/internal/logger"
	"github.com/ensemblecv/cv-judge/internal/orchestrator"
	"github.com/ensemblecv/cv-judge/internal/providers/gemini"
	"github.com/ensemblecv/cv-judge/internal/providers/openrouter"
	"github.com/ensemblecv/cv-judge/internal/render"
	"github.com/ensemblecv/cv-judge/internal/secrets"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptJudgeDetails = "Show judge details"
	PromptDumpReport   = "Dump report to file"
	PromptExit         = "Exit"
	PromptBack         = "back"

	defaultRunTimeout = 5 * time.Minute
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Next?",
	Items: []string{PromptJudgeDetails, PromptDumpReport, PromptExit},
}

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Evaluate a CV against a job description and print the consensus report",
	Run: func(cmd *cobra.Command, _ []string) {
		runJudge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(judgeCmd)

	judgeCmd.Flags().String("cv", "", "CV source: .txt/.md/.pdf file or URL")
	judgeCmd.Flags().String("jd", "", "job description source: .txt/.md/.pdf file or URL")
	judgeCmd.Flags().String("guidance", "", "extra evaluation guidance passed to every judge")
	judgeCmd.Flags().StringP("output", "o", "", "write the consensus report as JSON to this file")
	judgeCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit without the interactive menu")

	judgeCmd.MarkFlagRequired("cv")
	judgeCmd.MarkFlagRequired("jd")
}

// runJudge is the main command for the cli.
func runJudge(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	logger.Info("starting the cv-judge", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if len(config.Judges) == 0 {
		logger.Fatal("at least one judge is required under the 'judges' key")
	}

	loader := ingest.New(logger)

	cvText, cvSource, err := loader.Load(cmd.Flag("cv").Value.String())
	if err != nil {
		logger.Fatal("loading the CV", zap.Error(err))
	}
	logger.Info("loaded the CV", zap.String("source", string(cvSource)), zap.Int("chars", len(cvText)))

	jdText, jdSource, err := loader.Load(cmd.Flag("jd").Value.String())
	if err != nil {
		logger.Fatal("loading the job description", zap.Error(err))
	}
	logger.Info("loaded the job description", zap.String("source", string(jdSource)), zap.Int("chars", len(jdText)))

	clients, err := buildClients(ctx, config, logger)
	if err != nil {
		logger.Fatal("building judge clients", zap.Error(err))
	}

	req := &judge.Request{
		CVText:   cvText,
		JDText:   jdText,
		Guidance: cmd.Flag("guidance").Value.String(),
	}

	timeout := config.RunTimeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := orchestrator.New(clients, logger).Evaluate(runCtx, req, config.Judges)
	if err != nil {
		logger.Fatal("ensemble evaluation failed", zap.Error(err))
	}

	aggregator := consensus.New(config.DiscordanceThreshold, config.Bands, logger)
	report, err := aggregator.Aggregate(outcome.PerJudge, config.Judges, outcome.Excluded)
	if err != nil {
		logger.Fatal("aggregating judge results", zap.Error(err))
	}

	fmt.Println(render.Report(report))

	output := cmd.Flag("output").Value.String()
	if output != "" {
		if err := dumpReport(report, output); err != nil {
			logger.Fatal("writing the report", zap.Error(err))
		}
		logger.Info("report written", zap.String("path", output))
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, report, runID, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, report *consensus.Report, runID string, logger *zap.Logger) error {
	switch action {
	case PromptJudgeDetails:
		return showJudgeDetails(report)
	case PromptDumpReport:
		path := fmt.Sprintf("%s-report-%s.json", app, runID)
		if err := dumpReport(report, path); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", path))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
}

func showJudgeDetails(report *consensus.Report) error {
	for {
		items := make([]string, 0, len(report.PerJudge)+1)
		for _, r := range report.PerJudge {
			items = append(items, r.JudgeID)
		}
		items = append(items, PromptBack)

		picker := promptui.Select{
			Label: "Judge",
			Items: items,
		}

		_, picked, err := picker.Run()
		if err != nil {
			return err
		}
		if picked == PromptBack {
			return nil
		}

		for _, r := range report.PerJudge {
			if r.JudgeID == picked {
				fmt.Println(render.JudgeDetail(r))
			}
		}
	}
}

func dumpReport(report *consensus.Report, path string) error {
	data, err := render.JSON(report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data+"\n"), 0o644)
}

// buildClients wires one provider client per configured judge, keyed by the
// judge id so each judge can carry its own model.
func buildClients(ctx context.Context, config *Config, logger *zap.Logger) (map[string]judge.Client, error) {
	clients := make(map[string]judge.Client, len(config.Judges))

	for _, spec := range config.Judges {
		spec = spec.Normalized()

		var (
			client judge.Client
			err    error
		)

		switch spec.Provider {
		case "openrouter":
			var key string
			key, err = openRouterKey(config)
			if err == nil {
				client, err = openrouter.New(key, spec.Model, logger)
			}
		case "gemini":
			var key string
			key, err = geminiKey(config)
			if err == nil {
				client, err = gemini.New(ctx, key, spec.Model, logger)
			}
		default:
			err = fmt.Errorf("unsupported provider: %s", spec.Provider)
		}

		if err != nil {
			return nil, fmt.Errorf("judge %s: %w", spec.ID, err)
		}

		clients[spec.ID] = client
	}

	return clients, nil
}

func openRouterKey(config *Config) (string, error) {
	src := secrets.Source{
		Name: "openrouter api key",
		Env:  "OPENROUTER_API_KEY",
	}
	if config.Providers != nil && config.Providers.OpenRouter != nil {
		src.Value = config.Providers.OpenRouter.APIKey
		src.File = config.Providers.OpenRouter.APIKeyFile
	}

	key, err := secrets.Load(src)
	if err != nil {
		return "", fmt.Errorf("%w (set providers.openrouter.api-key-file or OPENROUTER_API_KEY)", err)
	}
	return key, nil
}

func geminiKey(config *Config) (string, error) {
	src := secrets.Source{
		Name: "gemini api key",
		Env:  "GEMINI_API_KEY",
	}
	if config.Providers != nil && config.Providers.Gemini != nil {
		src.Value = config.Providers.Gemini.APIKey
		src.File = config.Providers.Gemini.APIKeyFile
	}

	key, err := secrets.Load(src)
	if err != nil {
		return "", fmt.Errorf("%w (set providers.gemini.api-key-file or GEMINI_API_KEY)", err)
	}
	return key, nil
}
