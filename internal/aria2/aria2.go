// Package aria2 is a minimal JSON-RPC client for the aria2 download daemon,
// covering only the calls the bot needs: submit, poll, remove, and the
// one-time global option set at startup.
package aria2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	rpcURL string
	secret string
	http   *http.Client
}

func NewClient(rpcURL, secret string) *Client {
	return &Client{
		rpcURL: rpcURL,
		secret: secret,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      string `json:"id"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	// If a secret is set it must be the first parameter, as "token:secret"
	finalParams := make([]any, 0, len(params)+1)
	if c.secret != "" {
		finalParams = append(finalParams, "token:"+c.secret)
	}
	finalParams = append(finalParams, params...)

	data, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      "terabox-relay",
		Params:  finalParams,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, err
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// SetGlobalOptions applies daemon-wide download options. Called once at
// process start; per-request code never mutates daemon state.
func (c *Client) SetGlobalOptions(ctx context.Context, options map[string]string) error {
	_, err := c.call(ctx, "aria2.changeGlobalOption", options)
	return err
}

// AddURI submits a download and returns the daemon-assigned GID.
func (c *Client) AddURI(ctx context.Context, uri string, dir string) (string, error) {
	opts := map[string]any{}
	if dir != "" {
		opts["dir"] = dir
	}
	res, err := c.call(ctx, "aria2.addUri", []string{uri}, opts)
	if err != nil {
		return "", err
	}
	var gid string
	if err := json.Unmarshal(res, &gid); err != nil {
		return "", fmt.Errorf("invalid addUri response: %w", err)
	}
	return gid, nil
}

// Status is an aria2.tellStatus snapshot. aria2 encodes numbers as strings;
// rawStatus keeps the wire shape and Status holds the parsed view.
type Status struct {
	GID             string
	State           string // active, waiting, paused, error, complete, removed
	CompletedLength int64
	TotalLength     int64
	DownloadSpeed   int64
	ErrorMessage    string
	Files           []string // paths as reported by the daemon
}

type rawStatus struct {
	GID             string `json:"gid"`
	Status          string `json:"status"`
	CompletedLength string `json:"completedLength"`
	TotalLength     string `json:"totalLength"`
	DownloadSpeed   string `json:"downloadSpeed"`
	ErrorMessage    string `json:"errorMessage"`
	Files           []struct {
		Path string `json:"path"`
	} `json:"files"`
}

// TellStatus refreshes the state of one download.
func (c *Client) TellStatus(ctx context.Context, gid string) (*Status, error) {
	res, err := c.call(ctx, "aria2.tellStatus", gid, []string{
		"gid", "status", "completedLength", "totalLength", "downloadSpeed", "errorMessage", "files",
	})
	if err != nil {
		return nil, err
	}

	var raw rawStatus
	if err := json.Unmarshal(res, &raw); err != nil {
		return nil, fmt.Errorf("invalid tellStatus response: %w", err)
	}

	st := &Status{
		GID:             raw.GID,
		State:           raw.Status,
		CompletedLength: parseInt(raw.CompletedLength),
		TotalLength:     parseInt(raw.TotalLength),
		DownloadSpeed:   parseInt(raw.DownloadSpeed),
		ErrorMessage:    raw.ErrorMessage,
	}
	for _, f := range raw.Files {
		if f.Path != "" {
			st.Files = append(st.Files, f.Path)
		}
	}
	return st, nil
}

// Remove aborts an in-flight download.
func (c *Client) Remove(ctx context.Context, gid string) error {
	_, err := c.call(ctx, "aria2.remove", gid)
	return err
}

// RemoveDownloadResult drops a finished GID from the daemon's memory. The GID
// may already be gone, so the error is intentionally ignorable by callers.
func (c *Client) RemoveDownloadResult(ctx context.Context, gid string) error {
	_, err := c.call(ctx, "aria2.removeDownloadResult", gid)
	return err
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
