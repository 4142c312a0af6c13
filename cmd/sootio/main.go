package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/app"
	"github.com/jjfiecas-stack/sootio-sub001/internal/config"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/output"
	"github.com/jjfiecas-stack/sootio-sub001/internal/pipeline"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/jjfiecas-stack/sootio-sub001/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sootio",
	Short: "Resolve release pages into playable stream links",
	Long: `SootIO follows the download buttons of a release page through link
wrappers and file hosts until it reaches a direct, seekable media URL.

It can start from a content page URL (resolve) or from a title identifier
(streams), which searches the configured catalog site first.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sootio/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().IntP("workers", "j", config.DefaultWorkers, "Number of options resolved concurrently")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	rootCmd.PersistentFlags().Int("max-hops", config.DefaultMaxHops, "Max wrapper pages followed per link")
	rootCmd.PersistentFlags().Bool("require-partial", false, "Only accept links that answer a range request with 206")
	rootCmd.PersistentFlags().Bool("body-cache", false, "Keep fetched page bodies in memory")
	rootCmd.PersistentFlags().String("site", "", "Catalog site searched by title")
	rootCmd.PersistentFlags().String("hosts", "", "YAML host table replacing the built-in one")
	rootCmd.PersistentFlags().String("user-agent", "", "Custom User-Agent")
	rootCmd.PersistentFlags().String("proxy", "", "Proxy URL (http, https or socks5)")
	rootCmd.PersistentFlags().Bool("json", false, "Print streams as JSON")

	// Bind flags to viper
	_ = viper.BindPFlag("concurrency.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("concurrency.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("concurrency.max_hops", rootCmd.PersistentFlags().Lookup("max-hops"))
	_ = viper.BindPFlag("concurrency.require_partial_content", rootCmd.PersistentFlags().Lookup("require-partial"))
	_ = viper.BindPFlag("cache.body_cache", rootCmd.PersistentFlags().Lookup("body-cache"))
	_ = viper.BindPFlag("catalog.site_url", rootCmd.PersistentFlags().Lookup("site"))
	_ = viper.BindPFlag("hosts.file", rootCmd.PersistentFlags().Lookup("hosts"))
	_ = viper.BindPFlag("stealth.user_agent", rootCmd.PersistentFlags().Lookup("user-agent"))
	_ = viper.BindPFlag("stealth.proxy", rootCmd.PersistentFlags().Lookup("proxy"))

	resolveCmd.Flags().Int("season", 0, "Season number")
	resolveCmd.Flags().Int("episode", 0, "Episode number (requires --season)")
	resolveCmd.Flags().String("quality", "", "Preferred quality, e.g. 1080p")
	resolveCmd.Flags().String("title", "", "Title used for stream labels (default: page title)")

	streamsCmd.Flags().String("type", string(domain.MediaTypeMovie), "Media type: movie or series")
	streamsCmd.Flags().Int("season", 0, "Season number")
	streamsCmd.Flags().Int("episode", 0, "Episode number")

	// Add subcommands
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// setup loads the configuration and initializes the package logger
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log = utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func outputFormat(cmd *cobra.Command) string {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return output.FormatJSON
	}
	return output.FormatText
}

// episodeFlag returns the episode selected by --season/--episode, or nil
func episodeFlag(cmd *cobra.Command) (*domain.Episode, error) {
	season, _ := cmd.Flags().GetInt("season")
	episode, _ := cmd.Flags().GetInt("episode")

	switch {
	case season < 0 || episode < 0:
		return nil, fmt.Errorf("season and episode must not be negative")
	case episode > 0 && season == 0:
		return nil, fmt.Errorf("--episode requires --season")
	case season > 0 && episode > 0:
		return &domain.Episode{Season: season, Number: episode}, nil
	}
	return nil, nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <content-page-url>",
	Short: "Resolve every download option of a content page",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	ep, err := episodeFlag(cmd)
	if err != nil {
		return err
	}
	if !utils.IsHTTPURL(args[0]) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidURL, args[0])
	}

	cfg, err := setup()
	if err != nil {
		return err
	}

	format := outputFormat(cmd)
	var onProgress func()
	if format == output.FormatText && !verbose {
		bar := utils.NewProgressBar(-1, utils.DescResolving)
		defer func() { _ = bar.Finish() }()
		onProgress = func() { _ = bar.Add(1) }
	}

	deps, err := app.NewDependencies(cfg, log, onProgress)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, cancel := signalContext()
	defer cancel()

	page, err := deps.Loader.LoadContentPage(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load content page: %w", err)
	}

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = page.Title
	}
	quality, _ := cmd.Flags().GetString("quality")

	start := time.Now()
	streams := deps.Pipeline.Run(ctx, pipeline.Request{
		Title:         title,
		DownloadPages: page.DownloadPages,
		Languages:     page.Languages,
		Episode:       ep,
		QualityHint:   quality,
	})
	log.Debug().Dur("elapsed", time.Since(start)).Int("streams", len(streams)).Msg("Resolution finished")

	return output.NewWriter(cmd.OutOrStdout(), format).Write(deps.Formatter.Format(streams))
}

var streamsCmd = &cobra.Command{
	Use:   "streams <title-id>",
	Short: "Search the catalog site for a title and resolve its streams",
	Args:  cobra.ExactArgs(1),
	RunE:  runStreams,
}

func runStreams(cmd *cobra.Command, args []string) error {
	mediaType, _ := cmd.Flags().GetString("type")
	if mediaType != string(domain.MediaTypeMovie) && mediaType != string(domain.MediaTypeSeries) {
		return fmt.Errorf("unknown media type %q", mediaType)
	}
	season, _ := cmd.Flags().GetInt("season")
	episode, _ := cmd.Flags().GetInt("episode")

	cfg, err := setup()
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(cfg, log, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc, err := deps.Service()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	streams := svc.GetStreamsForTitle(ctx, domain.TitleRequest{
		TitleID:   args[0],
		MediaType: domain.MediaType(mediaType),
		Season:    season,
		Episode:   episode,
	})

	return output.NewWriter(cmd.OutOrStdout(), outputFormat(cmd)).Write(deps.Formatter.Format(streams))
}

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show how the host table classifies URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("hosts")
		classifier, err := hosts.LoadClassifier(config.ExpandPath(file))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, u := range args {
			fmt.Fprintf(out, "%s\tkind=%s tier=%s\n", u, classifier.Kind(u), classifier.Tier(u))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}
