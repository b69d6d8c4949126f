package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-glow-ai/internal/config"
	"go-glow-ai/internal/factory"
	"go-glow-ai/internal/imageprep"
	"go-glow-ai/internal/logger"
	"go-glow-ai/internal/service"
	"go-glow-ai/internal/strategy"
	"go-glow-ai/pkg/validation"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		provider string
		demo     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Run one color-season analysis with the configured vision provider",
		Long: "Run one color-season analysis. Provider settings come from the same\n" +
			"environment as the server (API_KEY, VISION_PROVIDER, VISION_BASE_URL, VISION_MODEL).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider != "" {
				os.Setenv("VISION_PROVIDER", provider)
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			if demo {
				cfg.FailureMode = config.FailureModeDemo
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			p, err := factory.NewProviderFactory(cfg).CreateProvider(cmd.Context(), cfg.VisionProvider)
			if err != nil {
				return err
			}
			if closer, ok := p.(interface{ Close() error }); ok {
				defer closer.Close()
			}
			policy, err := strategy.NewFailurePolicy(cfg.FailureMode, nil)
			if err != nil {
				return err
			}

			svc := service.NewAnalysisService(p, nil, validation.NewSanitizer(), policy, nil, logger.Logger, service.AnalysisOptions{
				Preprocess: imageprep.Options{MaxDimension: cfg.ImageMaxDimension, Quality: cfg.ImageJPEGQuality},
				Timeout:    cfg.AnalysisTimeout,
			})

			start := time.Now()
			result, err := svc.Analyze(cmd.Context(), service.AnalyzeInput{Data: data, RequestID: "glowctl"})
			if err != nil {
				return err
			}
			logger.WithField("elapsed", time.Since(start).String()).Debug("Analysis finished")
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "override VISION_PROVIDER ("+strings.Join([]string{config.ProviderOpenAI, config.ProviderGemini, config.ProviderMock}, ", ")+")")
	cmd.Flags().BoolVar(&demo, "demo", false, "substitute a fallback profile when the provider fails")
	return cmd
}
