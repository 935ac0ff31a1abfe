package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foundry-lang/foundry/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the foundry language server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr; stdout carries the JSON-RPC stream.
		logger, err := zap.NewDevelopment()
		if err != nil {
			logger = zap.NewNop()
		}
		server := lsp.NewServer(logger)
		return server.Run(contextWithInterrupt())
	},
}
