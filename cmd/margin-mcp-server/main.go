package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/margin-review/margin/internal/logger"
	"github.com/margin-review/margin/server"
)

func main() {
	log, err := logger.NewLogger(logger.LogConfig{})
	if err != nil {
		// Fall back to a panic if the logger itself cannot start
		panic(err)
	}

	log.Info("Starting margin-review server")

	srv := server.CreateServer(log)
	err = srv.Run(context.Background(), &mcp.StdioTransport{})
	if err != nil {
		log.Fatal("Server failed: %v", err)
	}
}
