// entry point of the application
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/batch"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/config"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/console"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/depmanager"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/downloader"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
	httprouter "github.com/DhananjayPorwal/youtube-playlist-downloader/internal/infrastructure/delivery/http"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/observability"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/proxymgr"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/tui"
	httpserver "github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/http/server"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/logger"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/urls"
)

const logFilePerm = 0o644

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [playlist-url]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Without a URL an interactive terminal UI is started.")
		fmt.Fprintln(flag.CommandLine.Output(), "Configuration is read from PLDL_* environment variables.")
	}
	noBar := flag.Bool("no-progress", false, "headless mode: do not draw the progress bar")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))

		return 1
	}

	logOpts := &logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
		Output:    os.Stderr,
	}

	// the terminal belongs to the front-end, logs go to a file
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			slog.Error("open log file", slog.String("path", cfg.App.LogFile), slog.Any("error", err))

			return 1
		}
		defer f.Close()

		logOpts.Output = f
	}

	log, err := logger.New(logOpts)
	if err != nil {
		log.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := observability.New()
	depMgr := depmanager.New(log, cfg.DepManager)

	var proxyMgr *proxymgr.Manager
	if len(cfg.Proxy.Proxies) > 0 {
		proxyMgr = proxymgr.New(log, cfg.Proxy, metrics)

		log.InfoContext(ctx, "proxy manager initialized", slog.Int("proxy_count", proxyMgr.ProxyCount()))
	}

	runner, err := newRunner(ctx, log, cfg, depMgr, proxyMgr, metrics)
	if err != nil {
		log.ErrorContext(ctx, "init downloader", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Addr != "" {
		router := httprouter.New(log, runner, metrics.Handler())
		srv := httpserver.New(router, httpserver.Options{
			Addr:            cfg.HTTP.Addr,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		})

		g.Go(func() error {
			return serveStatus(gctx, log, srv, cfg.HTTP.Addr)
		})
	}

	if cfg.App.Downloader == consts.DownloaderYTdlp {
		g.Go(func() error {
			return depMgr.RunUpdateChecker(gctx)
		})
	}

	if proxyMgr != nil {
		g.Go(func() error {
			return proxyMgr.RunHealthChecker(gctx)
		})
	}

	// the front-end decides when the process is done
	g.Go(func() error {
		defer cancel()

		if flag.NArg() > 0 {
			return runHeadless(gctx, log, runner, flag.Arg(0), !*noBar)
		}

		return tui.Run(gctx, runner, cfg.Dir.Root)
	})

	if err := g.Wait(); err != nil {
		log.ErrorContext(ctx, "exit", slog.Any("error", err))

		return 1
	}

	log.InfoContext(ctx, "shut down gracefully")

	return 0
}

// newRunner wires the configured downloader into a batch runner.
func newRunner(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
	depMgr *depmanager.Manager,
	proxyMgr *proxymgr.Manager,
	metrics *observability.Metrics,
) (*batch.Runner, error) {
	opts := downloader.NewOptions(cfg.Download, cfg.Dir)

	switch cfg.App.Downloader {
	case consts.DownloaderYTdlp:
		log.InfoContext(ctx, "checking if yt-dlp and ffmpeg are installed. it may take some time...")

		if err := depMgr.Start(ctx); err != nil {
			return nil, fmt.Errorf("binaries: %w", err)
		}

		// a nil *proxymgr.Manager must not end up in the interface
		var proxies downloader.Proxies
		if proxyMgr != nil {
			proxies = proxyMgr
		}

		yt := downloader.NewYTdlp(log, opts, depMgr, proxies, metrics)

		return batch.New(log, yt, yt, opts, cfg.Download.Retries, metrics), nil

	case consts.DownloaderMock:
		mock := downloader.NewMock(log, nil)
		mock.Delay = consts.DefaultSimulateTime
		mock.WriteFiles = true

		return batch.New(log, mock, mock, opts, cfg.Download.Retries, metrics), nil

	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrDownloaderNotFound, cfg.App.Downloader)
	}
}

// serveStatus runs the optional status server. Its failure is logged and never
// cancels the front-end.
func serveStatus(
	ctx context.Context,
	log *slog.Logger,
	srv interface{ Run(ctx context.Context) error },
	addr string,
) error {
	log.InfoContext(ctx, "status server started", slog.String("addr", addr))

	if err := srv.Run(ctx); err != nil {
		log.ErrorContext(ctx, "status server stopped", slog.String("addr", addr), slog.Any("error", err))
	}

	return nil
}

// runHeadless downloads the playlist at raw once, printing notifications to stdout.
func runHeadless(ctx context.Context, log *slog.Logger, runner *batch.Runner, raw string, showBar bool) error {
	url := urls.Normalize(raw)
	if !urls.IsURLValid(url) {
		fmt.Fprintln(os.Stdout, consts.MsgEmptyURL)

		return fmt.Errorf("%w: %q", errs.ErrInvalidURL, raw)
	}

	printer := console.New(os.Stdout, showBar)

	fmt.Fprintln(os.Stdout, consts.MsgStarting)

	_, err := runner.Run(ctx, url, batch.Multi(printer.Observer(), batch.LogObserver(ctx, log)))

	return err
}
