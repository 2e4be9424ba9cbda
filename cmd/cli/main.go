package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"chat-with-pdf-be/internal/bootstrap"
	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/pkg/serverutils"
	"chat-with-pdf-be/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
)

func main() {
	backend := flag.String("backend", constant.DefaultBackend, "vector store backend: local or remote")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-backend local|remote] file.pdf\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *backend); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func run(path, backend string) error {
	cfg := config.Load()

	sysLogger := logger.NewFileLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	container, err := bootstrap.NewContainer(cfg, sysLogger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := container.Start(ctx); err != nil {
		sysLogger.Warn("CLI", "Background services failed to start", map[string]interface{}{"error": err.Error()})
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	sessions := container.SessionService
	sessionID := sessions.Init(ctx)

	color.Cyan("%s", constant.AppTitle)
	color.Yellow("Processing %s with %s...", info.Name(), constant.BackendLabel(backend))

	res, err := sessions.Process(ctx, sessionID, &dto.ProcessDocumentRequest{
		FileName:    info.Name(),
		ContentType: contentType(path),
		Size:        info.Size(),
		Reader:      f,
		Backend:     backend,
		Submitted:   true,
	})
	if err != nil {
		_, msg := serverutils.StatusFor(err)
		return fmt.Errorf("%s (%v)", msg, err)
	}
	summary := fmt.Sprintf("%s · %d pages · %d chunks · %s", info.Name(), res.PageCount, res.ChunkCount, res.Session.BackendLabel)
	color.Green("✓ %s in %dms", summary, res.DurationMs)

	_, err = tea.NewProgram(tui.New(sessions, sessionID, summary), tea.WithAltScreen()).Run()
	return err
}

// contentType trusts the extension; the loader rejects anything that is not a PDF.
func contentType(path string) string {
	if filepath.Ext(path) == ".pdf" {
		return constant.PDFMimeType
	}
	return "application/octet-stream"
}
