package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oxidoc/oxidoc/internal/rpc"
)

// requestTimeout bounds one daemon round trip. Indexing a large crate holds
// the add-crates connection open while pages are cleaned and stored.
const requestTimeout = 5 * time.Minute

// Client talks to a running daemon over its unix socket.
type Client struct {
	socketPath string
	http       *http.Client
}

func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: requestTimeout,
		},
	}
}

// ConnectOrSpawn returns a client for a running daemon, starting one first
// when the socket is not answering.
func ConnectOrSpawn(socketPath string) (*Client, error) {
	c := NewClient(socketPath)
	if c.IsAvailable() {
		return c, nil
	}
	if err := spawnDaemon(); err != nil {
		return nil, fmt.Errorf("spawning daemon: %w", err)
	}
	if err := c.waitUntilReady(startupWait); err != nil {
		return nil, err
	}
	return c, nil
}

// IsAvailable probes the socket without issuing a request.
func (c *Client) IsAvailable() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// AddCrates indexes the given crates. The daemon streams newline-delimited
// progress while it works; each progress message is handed to onProgress.
func (c *Client) AddCrates(ctx context.Context, crates []rpc.CrateSpec, onProgress func(string)) (*rpc.AddCratesResponse, error) {
	body, err := c.send(ctx, http.MethodPost, "/add-crates", rpc.AddCratesRequest{Crates: crates})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result rpc.AddCratesResponse
	dec := json.NewDecoder(body)
	for dec.More() {
		var line rpc.ProgressLine
		if err := dec.Decode(&line); err != nil {
			return nil, fmt.Errorf("decoding progress stream: %w", err)
		}
		switch line.Type {
		case "progress":
			if onProgress != nil {
				onProgress(line.Message)
			}
		case "result":
			if line.Result != nil {
				result.Results = append(result.Results, *line.Result)
			}
		}
	}
	return &result, nil
}

func (c *Client) Search(ctx context.Context, req rpc.SearchRequest) (*rpc.SearchResponse, error) {
	var resp rpc.SearchResponse
	err := c.call(ctx, http.MethodPost, "/search", req, &resp)
	return &resp, err
}

func (c *Client) GetDoc(ctx context.Context, req rpc.GetDocRequest) (*rpc.GetDocResponse, error) {
	var resp rpc.GetDocResponse
	err := c.call(ctx, http.MethodPost, "/get-doc", req, &resp)
	return &resp, err
}

func (c *Client) Status(ctx context.Context) (*rpc.StatusResponse, error) {
	var resp rpc.StatusResponse
	err := c.call(ctx, http.MethodGet, "/status", nil, &resp)
	return &resp, err
}

func (c *Client) ClearCache(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/clear-cache", nil, nil)
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/shutdown", nil, nil)
}

// call performs one exchange and decodes the JSON reply into resp, which may
// be nil when the caller only cares about success.
func (c *Client) call(ctx context.Context, method, path string, req, resp interface{}) error {
	body, err := c.send(ctx, method, path, req)
	if err != nil {
		return err
	}
	defer body.Close()

	if resp == nil {
		io.Copy(io.Discard, body)
		return nil
	}
	if err := json.NewDecoder(body).Decode(resp); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// send issues the request and hands the body back for the caller to consume.
// Non-200 replies become errors carrying the daemon's message.
func (c *Client) send(ctx context.Context, method, path string, payload interface{}) (io.ReadCloser, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling daemon: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		httpResp.Body.Close()
		return nil, fmt.Errorf("daemon returned %d on %s: %s", httpResp.StatusCode, path, strings.TrimSpace(string(msg)))
	}
	return httpResp.Body, nil
}
