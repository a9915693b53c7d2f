package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/gateway"
	"codeberg.org/snonux/lingopop/internal/logging"
	"codeberg.org/snonux/lingopop/internal/term"
)

// InitConfig initializes viper configuration and watches the config file
// for log level changes
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".lingopop" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lingopop")
	}

	// LINGOPOP_GATEWAY_PROVIDER overrides gateway.provider
	viper.SetEnvPrefix("LINGOPOP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		watchConfig()
	}
}

func watchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := viper.GetString("log.level")
		logging.SetLevel(level)
		slog.Info("Config reloaded", "file", e.Name, "log_level", level)
	})
	viper.WatchConfig()
}

// InitLogging configures the default logger from flags and config
func InitLogging() *slog.Logger {
	return logging.New(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("gemini.api_key")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("openai.api_key")
}

// DefaultLibraryPath returns the default location of the library database
func DefaultLibraryPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "lingopop", "library.db")
}

// LibraryPath returns the configured library database path
func LibraryPath() string {
	if path := viper.GetString("library.path"); path != "" {
		return path
	}
	return DefaultLibraryPath()
}

// GatewayConfig builds the gateway configuration from config and environment
func GatewayConfig(logger *slog.Logger) *gateway.Config {
	cfg := gateway.DefaultConfig()
	cfg.Logger = logger
	cfg.GeminiAPIKey = GetGeminiKey()
	cfg.OpenAIAPIKey = GetOpenAIKey()

	if provider := viper.GetString("gateway.provider"); provider != "" {
		cfg.Provider = strings.ToLower(provider)
	}

	cfg.TextModel = viper.GetString("gateway.text_model")
	cfg.ImageModel = viper.GetString("gateway.image_model")
	cfg.SpeechModel = viper.GetString("gateway.speech_model")
	cfg.BaseURL = viper.GetString("gateway.base_url")

	if viper.IsSet("gateway.timeout") {
		cfg.Timeout = viper.GetDuration("gateway.timeout")
	}
	if viper.IsSet("gateway.retries") {
		cfg.Retries = viper.GetInt("gateway.retries")
	}
	if viper.IsSet("gateway.requests_per_second") {
		cfg.RequestsPerSecond = viper.GetFloat64("gateway.requests_per_second")
	}
	if viper.IsSet("gateway.burst") {
		cfg.Burst = viper.GetInt("gateway.burst")
	}
	if viper.IsSet("gateway.breaker_failures") {
		cfg.BreakerFailures = viper.GetUint32("gateway.breaker_failures")
	}
	if viper.IsSet("gateway.breaker_cooldown") {
		cfg.BreakerCooldown = viper.GetDuration("gateway.breaker_cooldown")
	}
	return cfg
}

// LanguageSettings returns the configured native and target languages
func LanguageSettings() (term.Settings, error) {
	native, ok := catalog.Lookup(viper.GetString("settings.native"))
	if !ok {
		return term.Settings{}, fmt.Errorf("unknown native language %q (supported: %s)", viper.GetString("settings.native"), strings.Join(catalog.Codes(), ", "))
	}
	target, ok := catalog.Lookup(viper.GetString("settings.target"))
	if !ok {
		return term.Settings{}, fmt.Errorf("unknown target language %q (supported: %s)", viper.GetString("settings.target"), strings.Join(catalog.Codes(), ", "))
	}

	settings := term.Settings{Native: native, Target: target}
	if err := settings.Validate(); err != nil {
		return term.Settings{}, err
	}
	return settings, nil
}
