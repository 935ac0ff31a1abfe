// Package lsp exposes a foundry workspace to editors over the Language
// Server Protocol. Document open/change/close notifications map onto host
// mutations of the workspace, and load diagnostics are published per file.
package lsp

import (
	"context"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/foundry-lang/foundry/internal/loader"
	"github.com/foundry-lang/foundry/internal/manifest"
	"github.com/foundry-lang/foundry/internal/textfile"
	"github.com/foundry-lang/foundry/workspace"
)

// Server implements the LSP server over a workspace.
type Server struct {
	ws     *workspace.Workspace
	loader *loader.Loader
	reader *manifest.Reader

	conn   jsonrpc2.Conn
	client protocol.Client
	logger *zap.Logger

	workspaceRoot string
	capabilities  protocol.ServerCapabilities

	cancel context.CancelFunc
}

// NewServer creates an LSP server instance. The workspace starts empty; the
// initialize handshake loads the manifest found under the workspace root.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	source := textfile.NewSource(textfile.WithLogger(logger))
	reader := manifest.NewReader(source)
	opts := loader.DefaultOptions()
	opts.Logger = logger

	return &Server{
		ws: workspace.New(workspace.Options{
			Capabilities: workspace.DefaultCapabilities(),
			Writer:       source,
			Logger:       logger,
		}),
		loader: loader.New(reader, opts),
		reader: reader,
		logger: logger,
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: false,
				},
			},
		},
	}
}

// Workspace returns the workspace the server fronts.
func (s *Server) Workspace() *workspace.Workspace {
	return s.ws
}

// Run starts the LSP server on stdio and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting foundry language server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn
	s.client = protocol.ClientDispatcher(conn, s.logger)

	conn.Go(ctx, s.handler())
	<-ctx.Done()

	s.logger.Info("shutting down foundry language server")
	s.ws.Close()
	return conn.Close()
}

func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("received request", zap.String("method", req.Method()))

		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return s.handleInitialized(ctx, reply, req)
		case protocol.MethodShutdown:
			return s.handleShutdown(ctx, reply, req)
		case protocol.MethodExit:
			return s.handleExit(ctx, reply, req)
		case protocol.MethodTextDocumentDidOpen:
			return s.handleTextDocumentDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleTextDocumentDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return s.handleTextDocumentDidClose(ctx, reply, req)
		case protocol.MethodTextDocumentDidSave:
			return s.handleTextDocumentDidSave(ctx, reply, req)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

func (s *Server) replyWithError(ctx context.Context, reply jsonrpc2.Replier, code jsonrpc2.Code, message string) error {
	return reply(ctx, nil, &jsonrpc2.Error{
		Code:    code,
		Message: message,
	})
}

// stdrwc implements io.ReadWriteCloser over stdin/stdout.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
