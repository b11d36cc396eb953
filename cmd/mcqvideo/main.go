package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/mcqvideo/internal/audio"
	"codeberg.org/snonux/mcqvideo/internal/cli"
	"codeberg.org/snonux/mcqvideo/internal/executor"
	"codeberg.org/snonux/mcqvideo/internal/httpapi"
	"codeberg.org/snonux/mcqvideo/internal/logger"
	"codeberg.org/snonux/mcqvideo/internal/mcpserver"
	"codeberg.org/snonux/mcqvideo/internal/models"
	"codeberg.org/snonux/mcqvideo/internal/processor"
	"codeberg.org/snonux/mcqvideo/internal/video"
	"codeberg.org/snonux/mcqvideo/internal/watcher"
)

func main() {
	// A missing .env is fine; keys may come from the environment or config
	_ = godotenv.Load()

	// Create flags instance
	flags := cli.NewFlags()

	// Create command tree
	cmds := cli.CreateCommands(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run functions
	cmds.Root.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}
	cmds.Serve.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	}
	cmds.ServeHTTP.RunE = func(cmd *cobra.Command, args []string) error {
		return runServeHTTP(cmd.Context(), flags)
	}
	cmds.Watch.RunE = func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context(), args[0], flags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := cmds.Root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app is the wired pipeline shared by every command
type app struct {
	settings cli.Settings
	proc     *processor.Processor
	log      logger.Logger
}

func newApp() (*app, error) {
	settings, err := cli.LoadSettings()
	if err != nil {
		return nil, err
	}
	log := logger.New(settings.Log.Level)
	exec := executor.New()

	provider, err := audio.NewProvider(settings.AudioConfig(cli.GetOpenAIKey(), cli.GetGeminiKey()), exec, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio provider: %w", err)
	}
	if err := provider.IsAvailable(); err != nil {
		log.Warn(context.Background(), "Audio provider %s may not work: %v", provider.Name(), err)
	}

	procCfg, err := settings.ProcessorConfig()
	if err != nil {
		return nil, err
	}
	proc, err := processor.New(procCfg, processor.Deps{
		Narrator:     audio.NewNarrator(provider),
		Composer:     video.NewComposer(settings.Video, exec, log),
		Concatenator: video.NewConcatenator(settings.Video, exec, log),
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	return &app{settings: settings, proc: proc, log: log}, nil
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey(), "")
		return lister.ListSpeechModels(cmd.Context(), os.Stdout)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	// Handle --print-config flag
	if flags.PrintConfig {
		return a.settings.WriteYAML(os.Stdout)
	}

	if len(args) == 0 {
		return cmd.Help()
	}

	resp := a.proc.Invoke(cmd.Context(), processor.Request{
		CSVFilePath:    args[0],
		OutputFilename: flags.OutputFilename,
	})
	if resp.IsError {
		return errors.New(resp.Result)
	}

	fmt.Println(resp.Result)
	return nil
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	rc, _ := a.settings.RenderConfig()
	srv := mcpserver.New(a.proc, rc, a.log)
	if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeHTTP(ctx context.Context, flags *cli.Flags) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	rc, _ := a.settings.RenderConfig()
	g, ctx := errgroup.WithContext(ctx)

	srv := httpapi.NewServer(a.proc, rc, a.settings.Server.Addr, a.log)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if flags.WatchDir != "" {
		w, err := newWatcher(a, flags.WatchDir, flags.MaxConcurrent)
		if err != nil {
			return err
		}
		defer w.Stop()
		g.Go(func() error {
			return ignoreCanceled(w.Start(ctx))
		})
	}

	return g.Wait()
}

func runWatch(ctx context.Context, dir string, flags *cli.Flags) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	w, err := newWatcher(a, dir, flags.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	return ignoreCanceled(w.Start(ctx))
}

func newWatcher(a *app, dir string, maxConcurrent int) (watcher.Watcher, error) {
	w, err := watcher.New(dir, watcher.ToolHandler(a.proc, a.log), a.log, watcher.Options{
		MaxConcurrent: maxConcurrent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return w, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
