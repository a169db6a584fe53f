package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/stefjnl/localai-knowledge/internal/ai"
	"github.com/stefjnl/localai-knowledge/internal/config"
	"github.com/stefjnl/localai-knowledge/internal/embedcache"
	"github.com/stefjnl/localai-knowledge/internal/handler"
	"github.com/stefjnl/localai-knowledge/internal/job"
	"github.com/stefjnl/localai-knowledge/internal/kvstore"
	"github.com/stefjnl/localai-knowledge/internal/ledger"
	"github.com/stefjnl/localai-knowledge/internal/middleware"
	"github.com/stefjnl/localai-knowledge/internal/schedule"
	"github.com/stefjnl/localai-knowledge/internal/service"
	"github.com/stefjnl/localai-knowledge/internal/source"
	"github.com/stefjnl/localai-knowledge/internal/vectorstore"
	"github.com/stefjnl/localai-knowledge/internal/watch"
)

type app struct {
	cfg    *config.Config
	ledger *ledger.Ledger
	ingest *service.IngestService
	search *service.SearchService
	chat   *service.ChatService
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	kv, err := kvstore.NewJSONFileStore(ctx, cfg.LedgerDir)
	if err != nil {
		return nil, fmt.Errorf("init ledger store: %w", err)
	}
	lg, err := ledger.Open(ctx, kv)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = map[string]interface{}{}
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	embedder := embedcache.WrapLruCache(
		ai.NewEmbedder(provider, cfg.AI.EmbedModel),
		cfg.Embedding.CacheSize,
		time.Duration(cfg.Embedding.CacheTTLHours)*time.Hour,
	)
	generator := ai.NewGenerator(provider, cfg.AI.ChatModel)

	store, err := vectorstore.New(cfg.VectorStore.Type, cfg.VectorStore.Data)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	sources := make([]source.Source, 0, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		src, err := source.New(sc.Type, sc.Data)
		if err != nil {
			return nil, fmt.Errorf("init source %d: %w", i, err)
		}
		sources = append(sources, src)
	}

	ingest := service.NewIngestService(embedder, store, lg, sources,
		cfg.Embedding.Dim, time.Duration(cfg.AI.TimeoutSecs)*time.Second)
	search := service.NewSearchService(embedder, store)
	chat := service.NewChatService(search, generator)

	return &app{cfg: cfg, ledger: lg, ingest: ingest, search: search, chat: chat}, nil
}

func loadApp(ctx context.Context, configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(ctx).Info("config loaded", zap.String("config", configPath))
	return buildApp(ctx, cfg)
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "localai-knowledge",
		Short: "local document knowledge assistant",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newIngestCmd(&configPath),
		newSearchCmd(&configPath),
		newChatCmd(&configPath),
		newStatusCmd(&configPath),
		newForgetCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the knowledge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			return runServer(ctx, a)
		},
	}
}

func runServer(ctx context.Context, a *app) error {
	log := logutil.GetLogger(ctx)
	deps := handler.RouterDeps{
		Knowledge: handler.NewKnowledgeHandler(a.ingest, a.search, a.chat),
	}
	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", a.cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(a.cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	log.Info("http server listening", zap.Int("port", a.cfg.Port))

	if a.cfg.Schedule.IngestSpec != "" {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewIngestJob(a.ingest), a.cfg.Schedule.IngestSpec); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	if a.cfg.Watch.Enable {
		watcher := watch.New(a.cfg.Watch.Dirs,
			time.Duration(a.cfg.Watch.DebounceSecs)*time.Second,
			func(ctx context.Context) {
				if _, err := a.ingest.ProcessAll(ctx); err != nil && !errors.Is(err, service.ErrIngestInProgress) {
					logutil.GetLogger(ctx).Error("watch-triggered ingestion failed", zap.Error(err))
				}
			})
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	return nil
}

func newIngestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "run one batch ingestion pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			report, err := a.ingest.ProcessAll(ctx)
			if err != nil {
				return err
			}
			color.Green("processed %d file(s), %d chunk(s) in %s",
				report.FilesProcessed, report.TotalChunks, report.Duration.Round(time.Millisecond))
			if report.FilesSkipped > 0 {
				color.Yellow("skipped %d already-processed file(s)", report.FilesSkipped)
			}
			if report.FilesFailed > 0 {
				color.Red("failed %d file(s); see status for details", report.FilesFailed)
			}
			return nil
		},
	}
}

func newSearchCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "search the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			results, err := a.search.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				color.Yellow("no results")
				return nil
			}
			for i, r := range results {
				color.Cyan("%d. %s (score %.2f)", i+1, r.Source, r.Score)
				fmt.Println(indent(r.Content))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", service.DefaultSearchLimit, "maximum number of results")
	return cmd
}

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "interactive question answering over the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			color.Cyan("ask questions about your documents; empty line or Ctrl-C to exit")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
				answer, err := a.chat.Ask(ctx, question)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					color.Red("error: %v", err)
					continue
				}
				fmt.Println(answer.Text)
				for _, src := range answer.Sources {
					color.New(color.Faint).Printf("  - %s (score %.2f)\n", src.Source, src.Score)
				}
			}
		},
	}
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show ledger summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			summary, err := a.ingest.Status(ctx)
			if err != nil {
				return err
			}
			color.Cyan("documents: %d, chunks: %d, ok: %d, failed: %d",
				summary.TotalDocuments, summary.TotalChunks, summary.SuccessCount, summary.FailureCount)
			if summary.LastRun != nil {
				fmt.Printf("last run: %s (%d chunk(s) in %dms)\n",
					summary.LastRun.RunAt.Format(time.RFC3339), summary.LastRun.TotalChunks, summary.LastRun.DurationMs)
				for _, md := range summary.LastRun.Files {
					if md.Success {
						color.Green("  ok     %s (%d chunks)", md.FileName, md.ChunksProcessed)
					} else {
						color.Red("  failed %s: %s", md.FileName, md.ErrorMessage)
					}
				}
			}
			return nil
		},
	}
}

func newForgetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <file>",
		Short: "remove a file from the ledger and delete its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			if err := a.ingest.Forget(ctx, args[0]); err != nil {
				return err
			}
			color.Green("forgotten: %s", args[0])
			return nil
		},
	}
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "   " + line
	}
	return strings.Join(lines, "\n")
}
