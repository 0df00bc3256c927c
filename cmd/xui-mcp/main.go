package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usestring/xui-mcp/internal/config"
	"github.com/usestring/xui-mcp/pkg/client"
	"github.com/usestring/xui-mcp/pkg/mcpsrv"
)

// loginTimeout bounds the initial login at startup.
const loginTimeout = 15 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Panel address, credentials and everything else come from the
	// environment (XUI_PANEL_URL, XUI_USERNAME, XUI_PASSWORD, ...; see
	// internal/config for all options).
	cfg := config.Load()

	panel, err := client.New(cfg.PanelURL, cfg.ClientOptions()...)
	if err != nil {
		slog.Error("invalid panel configuration", "error", err)
		os.Exit(1)
	}

	server, err := mcpsrv.NewServer(panel)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	// Credentials are kept even when this first attempt fails, so tools log
	// in again on their first call.
	loginCtx, loginCancel := context.WithTimeout(ctx, loginTimeout)
	if err := panel.Login(loginCtx, cfg.Username, cfg.Password); err != nil {
		slog.Warn("initial panel login failed", "error", err)
	} else {
		slog.Info("logged in to panel")
	}
	loginCancel()

	slog.Info("starting xui MCP server on stdio")
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
