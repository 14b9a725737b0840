package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func textResult(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestToolMiddleware_PassThrough(t *testing.T) {
	limits := NewLimits(2, 2)
	limits.AcquireRequestTimeout = 50 * time.Millisecond
	limits.OperationTimeout = time.Second
	mw := NewMiddleware(NewController(limits))

	wrapped := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	res, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "ok", textResult(res))
}

func TestToolMiddleware_BusyAtCapacity(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.AcquireRequestTimeout = 10 * time.Millisecond
	ctrl := NewController(limits)
	mw := NewMiddleware(ctrl)

	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	defer ctrl.ReleaseRequest()

	wrapped := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.Fatal("handler must not run while saturated")
		return nil, nil
	})

	res, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textResult(res), "BUSY_RESOURCE")
}

func TestToolMiddleware_OperationTimeout(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.AcquireRequestTimeout = 50 * time.Millisecond
	limits.OperationTimeout = 15 * time.Millisecond
	mw := NewMiddleware(NewController(limits))

	wrapped := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textResult(res), "TIMEOUT")
}

func TestToolMiddleware_ReleasesSlotAfterCall(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.AcquireRequestTimeout = 50 * time.Millisecond
	limits.OperationTimeout = time.Second
	mw := NewMiddleware(NewController(limits))

	wrapped := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	for i := 0; i < 3; i++ {
		res, err := wrapped(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		require.False(t, res.IsError)
	}
}
