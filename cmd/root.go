package cmd

import (
	"log"
	"time"

	"github.com/ensemblecv/cv-judge/internal/consensus"
	"github.com/ensemblecv/cv-judge/internal/judge"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-judge"
)

type Config struct {
	Judges               []judge.Spec     `mapstructure:"judges"`
	DiscordanceThreshold float64          `mapstructure:"discordance-threshold"`
	RunTimeout           time.Duration    `mapstructure:"run-timeout"`
	Bands                []consensus.Band `mapstructure:"bands"`
	Providers            *ProvidersConfig `mapstructure:"providers"`
}

type ProvidersConfig struct {
	OpenRouter *OpenRouterConfig `mapstructure:"openrouter"`
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
}

type OpenRouterConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-judge evaluates a CV against a job description with an ensemble of LLM judges",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-judge.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("discordance-threshold", consensus.DefaultDiscordanceThreshold)
	viper.SetDefault("run-timeout", "5m")
}

func initConfig() {
	// Config needed only for the judge command. If there is no config, we can
	// skip initialization.
	if judgeCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
