// Command livechat follows the live chat of one YouTube stream.
// It:
//   - Loads configuration from the environment (and .env) and initializes structured logging.
//   - Resolves the watch target from LIVECHAT_* variables or --video/--channel/--url flags.
//   - Optionally connects to Postgres, runs migrations and checkpoints the session.
//   - Polls innertube on a fixed interval and fans chat items out to SSE/WebSocket subscribers.
//   - Exposes /healthz, /readyz, /status and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM; the process also exits once the stream ends.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/onnwee/livechat/chat"
	"github.com/onnwee/livechat/config"
	"github.com/onnwee/livechat/db"
	"github.com/onnwee/livechat/server"
	"github.com/onnwee/livechat/telemetry"
	"github.com/onnwee/livechat/youtubeapi"
)

var flags struct {
	video   string
	channel string
	url     string
}

var rootCmd = &cobra.Command{
	Use:   "livechat",
	Short: "Follow a YouTube live chat",
	Long: `Polls the live chat of a YouTube stream and republishes every message,
Super Chat, sticker and membership event as normalized JSON over SSE and WebSocket.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&flags.video, "video", "", "video id to follow (overrides LIVECHAT_VIDEO_ID)")
	rootCmd.Flags().StringVar(&flags.channel, "channel", "", "channel id whose live stream to follow (overrides LIVECHAT_CHANNEL_ID)")
	rootCmd.Flags().StringVar(&flags.url, "url", "", "watch page URL to follow (overrides LIVECHAT_URL)")
	rootCmd.MarkFlagsMutuallyExclusive("video", "channel", "url")
}

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("livechat exited with error", slog.Any("err", err))
		stop()
		os.Exit(1)
	}
}

// setupLogging configures the default logger (level + format). Defaults: level=info, format=text.
func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		format = "text"
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.video != "" || flags.channel != "" || flags.url != "" {
		cfg.VideoID, cfg.ChannelID, cfg.URL = flags.video, flags.channel, flags.url
	}
	watchURL, err := cfg.WatchURL()
	if err != nil {
		return err
	}

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing(telemetry.TracingConfig{
		ServiceName:    "livechat",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing()

	hub := server.NewHub(cfg.HubBuffer)
	defer hub.Close()

	client, err := chat.NewClient(chat.Config{
		WatchURL: watchURL,
		Transport: &youtubeapi.Client{
			BaseURL:    cfg.BaseURL,
			UserAgent:  cfg.UserAgent,
			HTTPClient: youtubeapi.NewHTTPClient(cfg.HTTPTimeout),
		},
		OnStart: func(liveID string) {
			slog.Info("live chat started", slog.String("live_id", liveID), slog.String("component", "chat"))
		},
		OnChat: func(item chat.ChatItem) {
			hub.Publish(item)
			slog.Debug("chat item", slog.String("id", item.ID), slog.String("channel_id", item.Author.ChannelID), slog.String("component", "chat"))
		},
		OnError: func(err error) {
			slog.Warn("live chat error", slog.Any("err", err), slog.String("component", "chat"))
		},
		OnEnd: func() {
			slog.Info("live chat ended", slog.String("component", "chat"))
		},
	})
	if err != nil {
		return err
	}

	runner := &chat.Runner{Client: client, Interval: cfg.PollInterval}
	deps := server.Deps{Runner: runner, Hub: hub}

	if cfg.DBDsn != "" {
		database, err := db.Connect(cfg.DBDsn)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			return err
		}
		store := db.NewSessionStore(database)
		if prev, err := store.Latest(ctx, watchURL); err == nil {
			slog.Info("previous session found",
				slog.String("session_id", prev.SessionID),
				slog.String("live_id", prev.LiveID),
				slog.Int64("items", prev.Items),
				slog.Bool("ended", prev.Ended),
				slog.String("component", "db"))
		} else if !errors.Is(err, db.ErrSessionNotFound) {
			slog.Warn("failed to load previous session", slog.Any("err", err), slog.String("component", "db"))
		}
		runner.Checkpointer = store
		deps.DB = database
	} else {
		slog.Info("checkpoints disabled: DB_DSN not set", slog.String("component", "db"))
	}

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	srvDone := make(chan struct{})
	if cfg.HTTPAddr != "" {
		go func() {
			defer close(srvDone)
			if err := server.Start(srvCtx, cfg.HTTPAddr, server.NewMux(srvCtx, deps)); err != nil {
				slog.Error("http server exited with error", slog.Any("err", err))
			}
		}()
	} else {
		close(srvDone)
	}

	slog.Info("following live chat", slog.String("watch_url", watchURL), slog.Duration("interval", cfg.PollInterval))
	runErr := runner.Run(ctx)

	// Closing the hub ends every open stream before the server drains.
	hub.Close()
	stopServer()
	<-srvDone
	slog.Info("shutting down")
	return runErr
}
