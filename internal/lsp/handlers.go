package lsp

import (
	"context"
	"encoding/json"
	"path/filepath"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/foundry-lang/foundry/internal/manifest"
	"github.com/foundry-lang/foundry/workspace"
)

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "failed to parse initialize params")
	}

	if len(params.WorkspaceFolders) > 0 {
		s.workspaceRoot = uri.URI(params.WorkspaceFolders[0].URI).Filename()
	} else if params.RootURI != "" {
		s.workspaceRoot = params.RootURI.Filename()
	} else if params.RootPath != "" {
		s.workspaceRoot = params.RootPath
	}
	s.logger.Info("workspace root", zap.String("root", s.workspaceRoot))

	result := protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo: &protocol.ServerInfo{
			Name:    "foundry-lsp",
			Version: "0.1.0",
		},
	}
	return reply(ctx, result, nil)
}

// handleInitialized loads the workspace manifest once the client is ready and
// publishes any load diagnostics.
func (s *Server) handleInitialized(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if s.workspaceRoot != "" {
		manifestPath := filepath.Join(s.workspaceRoot, manifest.WorkspaceManifestName)
		paths, err := s.reader.ReadWorkspace(manifestPath)
		if err != nil {
			s.logger.Warn("no loadable workspace manifest", zap.String("path", manifestPath), zap.Error(err))
		} else if _, err := s.loader.LoadInto(ctx, s.ws, paths); err != nil {
			s.logger.Error("workspace load failed", zap.Error(err))
		}
		s.publishLoadDiagnostics(ctx)
	}
	return reply(ctx, nil, nil)
}

func (s *Server) handleShutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	return reply(ctx, nil, nil)
}

func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if err := reply(ctx, nil, nil); err != nil {
		s.logger.Warn("error replying to exit", zap.Error(err))
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// handleTextDocumentDidOpen verifies the opened file belongs to the loaded
// solution; text stays lazy until something asks for it.
func (s *Server) handleTextDocumentDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "failed to parse didOpen params")
	}

	path := params.TextDocument.URI.Filename()
	if _, ok := s.documentByPath(path); !ok {
		s.logger.Debug("opened file outside solution", zap.String("path", path))
	}
	return reply(ctx, nil, nil)
}

// handleTextDocumentDidChange feeds the editor buffer into the workspace as a
// host-initiated text change.
func (s *Server) handleTextDocumentDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "failed to parse didChange params")
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// Full document sync: the last change wins.
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	path := params.TextDocument.URI.Filename()

	doc, ok := s.documentByPath(path)
	if !ok {
		return reply(ctx, nil, nil)
	}
	if _, err := s.ws.SetDocumentText(doc.ID(), content); err != nil {
		s.logger.Warn("document update failed", zap.String("path", path), zap.Error(err))
	}
	return reply(ctx, nil, nil)
}

func (s *Server) handleTextDocumentDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "failed to parse didClose params")
	}
	return reply(ctx, nil, nil)
}

func (s *Server) handleTextDocumentDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "failed to parse didSave params")
	}
	s.publishLoadDiagnostics(ctx)
	return reply(ctx, nil, nil)
}

// documentByPath finds the solution document backed by the given file.
func (s *Server) documentByPath(path string) (*workspace.Document, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, p := range s.ws.CurrentSolution().Projects() {
		for _, d := range append(p.Documents(), p.AdditionalDocuments()...) {
			if d.FilePath() == abs {
				return d, true
			}
		}
	}
	return nil, false
}

// publishLoadDiagnostics pushes the workspace's load diagnostics to the
// client, grouped per offending file.
func (s *Server) publishLoadDiagnostics(ctx context.Context) {
	if s.client == nil {
		return
	}
	byPath := make(map[string][]protocol.Diagnostic)
	for _, d := range s.ws.Diagnostics() {
		byPath[d.Path] = append(byPath[d.Path], protocol.Diagnostic{
			Severity: convertSeverity(d.Severity),
			Source:   "foundry",
			Message:  d.Message,
		})
	}
	for path, diags := range byPath {
		params := protocol.PublishDiagnosticsParams{
			URI:         protocol.DocumentURI(uri.File(path)),
			Diagnostics: diags,
		}
		if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
			s.logger.Warn("error publishing diagnostics", zap.Error(err))
		}
	}
}

func convertSeverity(severity workspace.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case workspace.DiagnosticSeverityError:
		return protocol.DiagnosticSeverityError
	case workspace.DiagnosticSeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case workspace.DiagnosticSeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}
