package cmd

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	up_mcp "github.com/kumolabai/upctl/pkg/mcp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const (
	serverName  = "up-banking-server"
	serverTitle = "Up Banking"
)

var (
	httpAddr  string
	httpToken string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Up Banking MCP server",
	Long: `Start an MCP server exposing the Up Banking tools.

By default the server talks over stdin/stdout, which is what desktop LLM
clients expect. With --http it serves the streamable HTTP transport at /mcp.`,
	Example: "  UP_API_TOKEN=up:yeah:... upctl serve\n  upctl serve --http 127.0.0.1:8080 --http-token s3cret",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("http") {
			cfg.HTTP.Addr = httpAddr
		}
		if cmd.Flags().Changed("http-token") {
			cfg.HTTP.Token = httpToken
		}

		logger := newLogger()

		client, err := newClient(cfg, logger)
		if err != nil {
			return err
		}

		server := newServer(up_mcp.NewDispatcher(client, logger))

		if cfg.HTTP.Addr != "" {
			return serveHTTP(cmd.Context(), cfg.HTTP.Addr, newHTTPHandler(server, cfg.HTTP.Token, logger), logger)
		}

		logger.Info("Up Banking MCP server running on stdio")

		// Run the server over stdin/stdout, until the client disconnects
		if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server stopped: %w", err)
		}

		return nil
	},
}

func newServer(dispatcher *up_mcp.Dispatcher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Title: serverTitle, Version: version}, nil)
	dispatcher.GenerateTools(server)
	return server
}

func newHTTPHandler(server *mcp.Server, token string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(token))
		r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return server
		}, nil))
	})

	return r
}

// bearerAuth rejects requests without the expected token. An empty token
// disables the check.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("Up Banking MCP server listening", "addr", addr, "endpoint", "/mcp")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http", "", "serve the streamable HTTP transport on this address instead of stdio")
	serveCmd.Flags().StringVar(&httpToken, "http-token", "", "bearer token HTTP clients must present")
	rootCmd.AddCommand(serveCmd)
}
