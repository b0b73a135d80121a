package mcp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/caresync/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// portSearchSpan is how many ports after the requested one are tried when it is taken.
const portSearchSpan = 10

// Server is the MCP server for CareSync.
type Server struct {
	ports    *Ports
	server   *mcp.Server
	validate *validator.Validate
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "caresync",
		Version: Version,
	}

	s := &Server{
		ports:    ports,
		server:   mcp.NewServer(impl, nil),
		validate: validator.New(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Listen binds the HTTP listener, moving up to the next free port when
// port is already in use.
func Listen(port int) (net.Listener, error) {
	free, err := FindAvailablePort(port, port+portSearchSpan)
	if err != nil {
		return nil, err
	}
	if free != port {
		logger.Warn("port %d in use, using %d", port, free)
	}
	return net.Listen("tcp", fmt.Sprintf(":%d", free))
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}

// RunHTTP serves the MCP server over HTTP on ln.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	logger.Info("MCP server listening on %s", ln.Addr())
	err := httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
