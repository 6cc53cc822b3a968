package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/l1jgo/origin/internal/app"
	"github.com/l1jgo/origin/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, session app.SessionID) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             origin runtime v0.1.0         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        服務核心 · 計時器 · 流程          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m執行個體:\033[0m %s \033[90m(session: %s)\033[0m\n\n", name, session)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main runtime logic ────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	session := app.NewSessionID()
	log, level, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log = log.With(zap.String("session", string(session)))

	printBanner(cfg.Runtime.Name, session)

	// 3. Services
	printSection("服務")
	rt, err := app.InitializeRuntime(cfg, log, level, session)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	for _, s := range rt.Core.Services() {
		printStat(string(s.ID), s.Priority)
	}
	printOK("服務初始化完成")
	fmt.Println()

	// 4. Bootstrap manifest
	printSection("啟動流程")
	rep, err := rt.Boot()
	if err != nil {
		rt.Core.Shutdown()
		return fmt.Errorf("boot: %w", err)
	}
	printStat("流程", rep.Procedures)
	printStat("腳本計時器", rep.Timers)
	if rep.Entry != "" {
		printOK("進入流程 " + rep.Entry)
	}
	fmt.Println()

	// 5. Live config
	watcher, err := rt.WatchConfig(cfgPath)
	if err != nil {
		log.Warn("config hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	if rt.Debug != nil {
		printReady("除錯介面 http://" + cfg.Debug.BindAddress)
	}
	printReady(fmt.Sprintf("frame loop %s · game speed %.2f", cfg.Frame.Rate, cfg.Frame.GameSpeed))
	fmt.Println()

	// 6. Frame loop until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		return err
	}
	log.Info("runtime stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, zap.AtomicLevel, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zapCfg.Build()
	return log, zapCfg.Level, err
}
