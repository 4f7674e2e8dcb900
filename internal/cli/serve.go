package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typetower/pkg/pipeline"
	"github.com/matzehuels/typetower/pkg/provider/gotypes"
)

// defaultAddr is the listen address used when none is configured.
const defaultAddr = ":8321"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr          string
	scope         string
	includeExtern bool
	includeDocs   bool
	maxDepth      int
	name          string
}

// newServeCmd creates the serve command, which extracts a diagram once at
// startup and serves it over HTTP. POST /refresh re-runs the extraction so
// the diagram can track code changes without restarting.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <package>",
		Short: "Serve an extracted class diagram over HTTP",
		Long: `Serve extracts a class diagram and exposes it over HTTP.

Endpoints:
  GET  /diagram.puml   UML diagram text
  GET  /diagram.svg    Graphviz-rendered SVG
  POST /refresh        Re-extract from source
  GET  /healthz        Liveness check

Responses carry an ETag that changes on every refresh.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if !c.Flags().Changed("addr") {
				if cfg, err := loadConfig("."); err == nil && cfg.Serve.Addr != "" {
					opts.addr = cfg.Serve.Addr
				}
			}
			return runServe(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.scope, "limit-fqn", "", "restrict extraction to a qualified-name prefix")
	cmd.Flags().BoolVar(&opts.includeExtern, "include-extern", false, "expand types from outside the package tree")
	cmd.Flags().BoolVar(&opts.includeDocs, "include-docs", false, "attach doc comments as diagram notes")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", pipeline.DefaultMaxDepth, "maximum package nesting depth")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "diagram name (defaults to the root package)")

	return cmd
}

// diagramServer holds the latest extracted diagram under a revision tag.
type diagramServer struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu       sync.RWMutex
	revision string
	puml     []byte
	svg      []byte
}

// refresh re-runs the extraction and swaps in a new revision.
func (s *diagramServer) refresh(ctx context.Context) error {
	space, err := s.runner.Extract(ctx, s.opts)
	if err != nil {
		return err
	}

	pumlOpts := s.opts
	pumlOpts.Format = pipeline.FormatPUML
	puml, err := s.runner.Render(space, pumlOpts)
	if err != nil {
		return err
	}
	svgOpts := s.opts
	svgOpts.Format = pipeline.FormatSVG
	svg, err := s.runner.Render(space, svgOpts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.revision = uuid.NewString()
	s.puml = puml
	s.svg = svg
	s.mu.Unlock()

	s.logger.Info("diagram refreshed", "revision", s.revision, "entities", space.NodeCount())
	return nil
}

// serveArtifact writes one cached artifact with revision-based ETag support.
func (s *diagramServer) serveArtifact(w http.ResponseWriter, r *http.Request, contentType string, pick func() []byte) {
	s.mu.RLock()
	etag := `"` + s.revision + `"`
	body := pick()
	s.mu.RUnlock()

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	_, _ = w.Write(body)
}

// routes builds the HTTP router.
func (s *diagramServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/diagram.puml", func(w http.ResponseWriter, req *http.Request) {
		s.serveArtifact(w, req, "text/plain; charset=utf-8", func() []byte { return s.puml })
	})
	r.Get("/diagram.svg", func(w http.ResponseWriter, req *http.Request) {
		s.serveArtifact(w, req, "image/svg+xml", func() []byte { return s.svg })
	})
	r.Post("/refresh", func(w http.ResponseWriter, req *http.Request) {
		if err := s.refresh(req.Context()); err != nil {
			s.logger.Error("refresh failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.mu.RLock()
		etag := `"` + s.revision + `"`
		s.mu.RUnlock()
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// logRequests logs each request through the structured logger.
func (s *diagramServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// runServe extracts once and serves until the context is cancelled.
func runServe(ctx context.Context, opts *serveOpts, pattern string) error {
	logger := loggerFromContext(ctx)

	srv := &diagramServer{
		runner: pipeline.NewRunner(gotypes.NewProvider("."), logger),
		opts: pipeline.Options{
			Path:            pattern,
			Name:            opts.name,
			ScopePrefix:     opts.scope,
			MaxDepth:        opts.maxDepth,
			IncludeExternal: opts.includeExtern,
			IncludeDocs:     opts.includeDocs,
			Logger:          logger,
		},
		logger: logger,
	}
	if err := srv.refresh(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Serving diagram on %s", opts.addr)
		printInfo("Listening on %s", opts.addr)
		printNextStep("View the diagram", "curl http://localhost"+opts.addr+"/diagram.puml")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
