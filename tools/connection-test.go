package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/margin-review/margin/internal/logger"
)

// ConnectionChecker verifies API credentials with a minimal request.
// Satisfied by llm.Client.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) (string, error)
}

type ConnectionTestQuery struct{}

type ConnectionTestResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ConnectionTestTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ConnectionTestQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "connection-test",
		Description: "Verify that the configured OpenAI API key works by making a minimal completion request.",
		InputSchema: inputschema,
	}
}

func ConnectionTestToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ConnectionTestQuery, checker ConnectionChecker, log logger.Logger) (*mcp.CallToolResult, *ConnectionTestResponse, error) {
	log.Info("connection-test tool called")

	message, err := checker.CheckConnection(ctx)
	if err != nil {
		log.Error("connection test failed: %v", err)
		return nil, &ConnectionTestResponse{OK: false, Error: err.Error()}, nil
	}

	return nil, &ConnectionTestResponse{OK: true, Message: message}, nil
}
