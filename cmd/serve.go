package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"gopunch/config"
	"gopunch/web"

	"github.com/spf13/cobra"
)

var (
	servePort     int
	serveNoOpen   bool
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local upload page for converting punch logs",
	Long: `Start a local HTTP server with an upload form.

Uploaded logs are converted in memory and returned as a spreadsheet download
(Processed_Attendance_Summary.xlsx or .csv). Nothing is stored between requests.`,
	Example: `
  # Start local server on the configured port
  gopunch serve

  # Start on a custom port without opening a browser
  gopunch serve --port 9090 --no-open
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Serve.Port = servePort
		}
		if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
			return fmt.Errorf("invalid --port value: %d", cfg.Serve.Port)
		}

		level, err := parseLogLevel(serveLogLevel)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		handler, err := web.NewServer(*cfg, logger)
		if err != nil {
			return err
		}
		defer handler.Close()

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Serve.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		listenURL := fmt.Sprintf("http://localhost:%d", cfg.Serve.Port)
		fmt.Printf("Listening on %s\n", listenURL)
		logger.Info("server started",
			"port", cfg.Serve.Port,
			"max_upload_mb", cfg.Serve.MaxUploadMB,
			"cache_max_mb", cfg.Serve.CacheMaxMB,
		)
		if !serveNoOpen {
			if openErr := openURLInBrowser(listenURL); openErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", openErr)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port for the local web server (default from config)")
	serveCmd.Flags().BoolVar(&serveNoOpen, "no-open", false, "Do not open browser automatically")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Server log level: debug|info|warn|error")
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid --log-level value: %q", raw)
	}
	return level, nil
}

func openURLInBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}
