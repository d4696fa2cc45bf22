// Package agent implements the HTTP client for the remote backup agent.
// The agent performs all file I/O; the control plane only drives it
// through this request/response contract.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"

	"go.uber.org/zap"
	"resty.dev/v3"
)

// Default call deadlines. Listing and delete calls are quick filesystem
// operations; backup calls cover request dispatch, not the transfer
// itself, but agents answer slower under load.
const (
	DefaultCallTimeout   = 10 * time.Second
	DefaultBackupTimeout = 15 * time.Second
)

// API is the agent surface the engine depends on. It is an interface so
// the executor can be tested against a fake agent.
type API interface {
	Backup(ctx context.Context, req *BackupRequest) (*BackupResponse, error)
	DeletePaths(ctx context.Context, items []DeleteItem) ([]DeleteResult, error)
	ListJobBackups(ctx context.Context, req *JobBackupsRequest) ([]PhysicalBackup, error)
}

// Factory builds an API bound to one agent address ("host:port").
type Factory func(addr string) API

// Client talks to a single agent over HTTP.
type Client struct {
	baseURL       string
	client        *resty.Client
	logger        *zap.Logger
	callTimeout   time.Duration
	backupTimeout time.Duration
}

type Option func(*Client)

func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) {
		c.logger = lg
	}
}

func WithTimeouts(call, backup time.Duration) Option {
	return func(c *Client) {
		if call > 0 {
			c.callTimeout = call
		}
		if backup > 0 {
			c.backupTimeout = backup
		}
	}
}

// NewClient creates a client for the agent at addr ("host:port").
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		baseURL:       "http://" + addr,
		client:        resty.New(),
		logger:        zap.NewNop(),
		callTimeout:   DefaultCallTimeout,
		backupTimeout: DefaultBackupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFactory returns a Factory that builds clients with the given
// options.
func NewFactory(opts ...Option) Factory {
	return func(addr string) API {
		return NewClient(addr, opts...)
	}
}

// Backup dispatches one mapping transfer to the agent and returns its
// structured reply. Transport failures map to AGENT_UNREACHABLE or
// AGENT_TIMEOUT.
func (c *Client) Backup(ctx context.Context, req *BackupRequest) (*BackupResponse, error) {
	var out BackupResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetTimeout(c.backupTimeout).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post(c.baseURL + "/backup")
	if err != nil {
		return nil, c.transportError("backup", err)
	}
	if resp.IsError() {
		return nil, domain.NewError(domain.KindUnknownAgentError,
			fmt.Sprintf("agent returned HTTP %d for /backup", resp.StatusCode()))
	}
	return &out, nil
}

// DeletePaths asks the agent to remove the given paths. Failures are
// reported per path, never raised for the batch.
func (c *Client) DeletePaths(ctx context.Context, items []DeleteItem) ([]DeleteResult, error) {
	var out DeleteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetTimeout(c.callTimeout).
		SetHeader("Content-Type", "application/json").
		SetBody(&DeleteRequest{Items: items}).
		SetResult(&out).
		Post(c.baseURL + "/filesystem/delete")
	if err != nil {
		return nil, c.transportError("filesystem/delete", err)
	}
	if resp.IsError() {
		return nil, domain.NewError(domain.KindUnknownAgentError,
			fmt.Sprintf("agent returned HTTP %d for /filesystem/delete", resp.StatusCode()))
	}
	return out.Results, nil
}

// ListJobBackups lists the physical backups present for a job's
// mappings.
func (c *Client) ListJobBackups(ctx context.Context, req *JobBackupsRequest) ([]PhysicalBackup, error) {
	var out JobBackupsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetTimeout(c.backupTimeout).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post(c.baseURL + "/backups/job")
	if err != nil {
		return nil, c.transportError("backups/job", err)
	}
	if resp.IsError() {
		return nil, domain.NewError(domain.KindUnknownAgentError,
			fmt.Sprintf("agent returned HTTP %d for /backups/job", resp.StatusCode()))
	}
	return out.Backups, nil
}

func (c *Client) transportError(op string, err error) error {
	kind := domain.KindAgentUnreachable
	if isTimeout(err) {
		kind = domain.KindAgentTimeout
	}
	c.logger.Warn("agent call failed",
		zap.String("op", op),
		zap.String("agent", c.baseURL),
		zap.Error(err))
	return domain.WrapError(kind, fmt.Sprintf("agent %s call failed", op), err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
