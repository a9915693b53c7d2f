package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/lingopop/internal"
	"codeberg.org/snonux/lingopop/internal/anki"
	"codeberg.org/snonux/lingopop/internal/archive"
	"codeberg.org/snonux/lingopop/internal/batch"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/gateway"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/library"
	"codeberg.org/snonux/lingopop/internal/models"
	"codeberg.org/snonux/lingopop/internal/session"
	"codeberg.org/snonux/lingopop/internal/term"
)

// newGateway creates the gateway used by commands
var newGateway = func(ctx context.Context, logger *slog.Logger) (gateway.Gateway, error) {
	return gateway.New(ctx, GatewayConfig(logger))
}

// newModelSource creates the model listing client for provider
var newModelSource = func(ctx context.Context, provider string) (models.Source, error) {
	switch provider {
	case gateway.ProviderOpenAI:
		key := GetOpenAIKey()
		if key == "" {
			return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure openai.api_key in ~/.lingopop.yaml")
		}
		return gateway.NewOpenAI(gateway.OpenAIConfig{APIKey: key, BaseURL: viper.GetString("gateway.base_url")}), nil
	case gateway.ProviderGemini, "":
		key := GetGeminiKey()
		if key == "" {
			return nil, fmt.Errorf("Gemini API key not found. Set GEMINI_API_KEY environment variable or configure gemini.api_key in ~/.lingopop.yaml")
		}
		return gateway.NewGemini(ctx, gateway.GeminiConfig{APIKey: key, BaseURL: viper.GetString("gateway.base_url")})
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// CreateRootCommand creates and configures the root cobra command. Running
// it without a subcommand is left to the caller, which launches the GUI.
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lingopop",
		Short: "AI language-learning flashcards",
		Long: `lingopop explains words and phrases in the language you are learning.

It asks a generative AI model for an explanation, example sentences, usage
tips, an illustration and pronunciation, keeps the words you save in a local
notebook, and turns them into flashcards and short stories.

Examples:
  lingopop                                   # Launch the GUI (default)
  lingopop lookup Hola --native en --target es
  lingopop import words.txt --target ja      # Add many words at once
  lingopop library export --output deck.apkg # Export the notebook to Anki`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newLookupCommand(flags),
		newLibraryCommand(flags),
		newImportCommand(flags),
		newStoryCommand(),
		newModelsCommand(),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.lingopop.yaml)")
	pf.StringVar(&flags.Provider, "provider", flags.Provider, "AI provider: gemini or openai")
	pf.StringVar(&flags.LibraryPath, "library", DefaultLibraryPath(), "Library database path")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn or error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")
	pf.StringVar(&flags.Native, "native", flags.Native, "Native language code ("+strings.Join(catalog.Codes(), ", ")+")")
	pf.StringVar(&flags.Target, "target", flags.Target, "Target language code")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	bindings := map[string]string{
		"provider":   "gateway.provider",
		"library":    "library.path",
		"log-level":  "log.level",
		"log-format": "log.format",
		"native":     "settings.native",
		"target":     "settings.target",
	}
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if key, ok := bindings[f.Name]; ok {
			viper.BindPFlag(key, f)
		}
	})
}

func openStore() (*library.SQLiteStore, error) {
	store, err := library.OpenSQLite(LibraryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return store, nil
}

func newLookupCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lookup <term>",
		Short:        "Explain a word or phrase in the target language",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, strings.Join(args, " "), flags)
		},
	}
	cmd.Flags().BoolVar(&flags.Save, "save", false, "Save the result to the library")
	cmd.Flags().BoolVar(&flags.WithImage, "image", false, "Also generate an illustration")
	return cmd
}

func runLookup(cmd *cobra.Command, text string, flags *Flags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	styles := DefaultStyles()

	settings, err := LanguageSettings()
	if err != nil {
		return err
	}
	gw, err := newGateway(ctx, slog.Default())
	if err != nil {
		return err
	}

	analysis, err := gw.Analyze(ctx, text, settings.Native, settings.Target)
	if err != nil {
		return err
	}
	rec := term.NewRecord(text, analysis)

	if flags.WithImage {
		ref, err := gw.SynthesizeImage(ctx, rec.Term, rec.Explanation)
		if err != nil {
			slog.Warn("Image generation failed", "term", rec.Term, "error", err)
		}
		rec.ImageURL = ref
	}

	RenderRecord(out, rec, styles)

	if !flags.Save {
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	lib, err := store.Load(ctx)
	if err != nil {
		return err
	}
	next, _ := lib.Toggle(rec)
	if err := store.Save(ctx, next); err != nil {
		return err
	}
	fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Saved %q to your notebook (%d words)", rec.Term, next.Len())))
	return nil
}

func newLibraryCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage saved words",
	}

	list := &cobra.Command{
		Use:          "list",
		Short:        "List saved words, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadLibrary(cmd.Context())
			if err != nil {
				return err
			}
			RenderLibrary(cmd.OutOrStdout(), lib.Records(), DefaultStyles())
			return nil
		},
	}

	remove := &cobra.Command{
		Use:          "remove <id>",
		Short:        "Delete a saved word by id or id prefix",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0])
		},
	}

	export := &cobra.Command{
		Use:          "export",
		Short:        "Export saved words to Anki (APKG, or CSV with --csv)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}
	export.Flags().StringVarP(&flags.OutputPath, "output", "o", "", "Output file (default lingopop.apkg or lingopop.csv)")
	export.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name for APKG export")
	export.Flags().BoolVar(&flags.AnkiCSV, "csv", false, "Generate legacy CSV format instead of APKG")
	export.Flags().BoolVar(&flags.WithAudio, "audio", false, "Synthesize pronunciation audio for every card")

	archiveCmd := &cobra.Command{
		Use:          "archive",
		Short:        "Move the library database into the archive and start empty",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := archive.ArchiveLibrary(LibraryPath())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Library archived to: %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(list, remove, export, archiveCmd)
	return cmd
}

func loadLibrary(ctx context.Context) (library.Library, error) {
	store, err := openStore()
	if err != nil {
		return library.Library{}, err
	}
	defer store.Close()
	return store.Load(ctx)
}

// resolveID finds the record whose id equals or uniquely starts with prefix
func resolveID(lib library.Library, prefix string) (term.Record, error) {
	if rec, ok := lib.Get(prefix); ok {
		return rec, nil
	}

	var matches []term.Record
	for _, rec := range lib.Records() {
		if strings.HasPrefix(rec.ID, prefix) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return term.Record{}, fmt.Errorf("no saved word with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return term.Record{}, fmt.Errorf("id prefix %q matches %d words", prefix, len(matches))
	}
}

func runRemove(cmd *cobra.Command, prefix string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	lib, err := store.Load(ctx)
	if err != nil {
		return err
	}
	rec, err := resolveID(lib, prefix)
	if err != nil {
		return err
	}

	next, _ := lib.Remove(rec.ID)
	if err := store.Save(ctx, next); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", rec.Term)
	return nil
}

func runExport(cmd *cobra.Command, flags *Flags) error {
	ctx := cmd.Context()

	lib, err := loadLibrary(ctx)
	if err != nil {
		return err
	}

	output := flags.OutputPath
	if output == "" {
		output = "lingopop.apkg"
		if flags.AnkiCSV {
			output = "lingopop.csv"
		}
	}

	var speech anki.SpeechSynthesizer
	voice := ""
	if flags.WithAudio {
		settings, err := LanguageSettings()
		if err != nil {
			return err
		}
		gw, err := newGateway(ctx, slog.Default())
		if err != nil {
			return err
		}
		speech = gw
		voice = catalog.VoiceFor(settings.Target)
	}

	exporter := anki.NewExporter(image.NewFetcher(image.DefaultFetchOptions()), speech, slog.Default())
	stats, err := exporter.Export(ctx, lib.Records(), anki.ExportOptions{
		OutputPath: output,
		DeckName:   flags.DeckName,
		CSV:        flags.AnkiCSV,
		Voice:      voice,
	})
	if err != nil {
		return fmt.Errorf("failed to export library: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cards (%d with images, %d with audio) to: %s\n",
		stats.Cards, stats.WithImages, stats.WithAudio, output)
	return nil
}

func newImportCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "import <file>",
		Short:        "Look up every term in a file (one per line) and save it",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.Images, "images", false, "Also generate illustrations")
	cmd.Flags().IntVar(&flags.Workers, "workers", flags.Workers, "Concurrent lookups")
	return cmd
}

func runImport(cmd *cobra.Command, file string, flags *Flags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	styles := DefaultStyles()

	terms, err := batch.ReadBatchFile(file)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return fmt.Errorf("no terms found in %s", file)
	}

	settings, err := LanguageSettings()
	if err != nil {
		return err
	}
	gw, err := newGateway(ctx, slog.Default())
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	importer := batch.NewImporter(gw, batch.NewStoreTarget(store), batch.Config{
		Settings: settings,
		Workers:  flags.Workers,
		Images:   flags.Images,
		Logger:   slog.Default(),
	})

	jobs, summary, err := importer.Import(ctx, terms)
	for _, job := range jobs {
		switch job.Status {
		case batch.StatusCompleted:
			fmt.Fprintf(out, "%s %s\n", styles.Success.Render("✓"), job.Term)
		case batch.StatusSkipped:
			fmt.Fprintf(out, "%s %s (already saved)\n", styles.Muted.Render("-"), job.Term)
		case batch.StatusFailed:
			fmt.Fprintf(out, "%s %s: %s\n", styles.Warning.Render("✗"), job.Term, gateway.UserMessage(job.Err))
		}
	}
	fmt.Fprintf(out, "\nImported %d, skipped %d, failed %d\n", summary.Completed, summary.Skipped, summary.Failed)
	return err
}

func newStoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "story",
		Short:        "Write a short story using your saved words",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			lib, err := loadLibrary(ctx)
			if err != nil {
				return err
			}
			if err := session.CheckStoryThreshold(lib.Len()); err != nil {
				return err
			}

			settings, err := LanguageSettings()
			if err != nil {
				return err
			}
			gw, err := newGateway(ctx, slog.Default())
			if err != nil {
				return err
			}

			story, err := gw.GenerateStory(ctx, lib.Terms(), settings.Native)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderStory(story, DefaultStyles()))
			return nil
		},
	}
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "models",
		Short:        "List models available for the configured provider",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(viper.GetString("gateway.provider"))
			source, err := newModelSource(cmd.Context(), provider)
			if err != nil {
				return err
			}
			return models.NewLister(provider, source).ListAvailableModels(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
