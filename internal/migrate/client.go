package migrate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/brbranch/builder_profile/internal/model"
)

// DefaultTimeout はMCPリクエスト1件あたりのデフォルトタイムアウト
const DefaultTimeout = 30 * time.Second

// RemoteError はMCPサーバーが返したJSON-RPCエラー
type RemoteError struct {
	Code    int
	Message string
	Data    any
}

func (e *RemoteError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ErrToolFailed はtools/callがisErrorを返した場合のエラー
var ErrToolFailed = errors.New("tool call failed")

// rpcResponse はJSON-RPCレスポンス（成功・失敗共通）
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *model.RPCError `json:"error,omitempty"`
}

// toolResult はtools/callの結果
type toolResult struct {
	Content           []model.ContentItem `json:"content"`
	StructuredContent json.RawMessage     `json:"structuredContent,omitempty"`
	IsError           bool                `json:"isError,omitempty"`
}

// Client はMCP Streamable HTTPエンドポイントのクライアント
type Client struct {
	url    string
	http   *http.Client
	nextID atomic.Int64
}

// NewClient は新しいClientを作成する
// timeoutが0以下の場合はDefaultTimeoutを使用
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// URL はエンドポイントURLを返す
func (c *Client) URL() string {
	return c.url
}

// CallTool はtools/callを実行し、structuredContentをoutにデコードする
// outがnilの場合は結果を読み捨てる
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	result, err := c.call(ctx, "tools/call", model.ToolsCallParams{Name: name, Arguments: args})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	var tr toolResult
	if err := json.Unmarshal(result, &tr); err != nil {
		return fmt.Errorf("%s: failed to parse tool result: %w", name, err)
	}
	if tr.IsError {
		return fmt.Errorf("%s: %w: %s", name, ErrToolFailed, contentText(tr.Content))
	}
	if out == nil {
		return nil
	}

	payload := tr.StructuredContent
	// structuredContentが無いサーバーはtextにJSONを入れて返す
	if len(payload) == 0 || string(payload) == "null" {
		text := contentText(tr.Content)
		if text == "" {
			return fmt.Errorf("%s: empty tool result", name)
		}
		payload = json.RawMessage(text)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", name, err)
	}
	return nil
}

// call はJSON-RPCリクエストを1件送信し、resultを返す
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(model.Request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 200))
	}

	payload, err := decodeBody(respBody)
	if err != nil {
		return nil, err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(payload, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, &RemoteError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message, Data: rpcResp.Error.Data}
	}
	return rpcResp.Result, nil
}

// decodeBody はSSE形式（event: message / data: ...）またはJSONのボディからJSONを取り出す
func decodeBody(body []byte) ([]byte, error) {
	if !bytes.Contains(body, []byte("event: message")) {
		return body, nil
	}

	var data bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" && data.Len() > 0 {
			// 最初のイベントで終了
			break
		}
		if strings.HasPrefix(line, "data: ") {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(line, "data: "))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read SSE response: %w", err)
	}
	if data.Len() == 0 {
		return nil, errors.New("no data line found in SSE response")
	}
	return data.Bytes(), nil
}

func contentText(items []model.ContentItem) string {
	var parts []string
	for _, item := range items {
		if item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
