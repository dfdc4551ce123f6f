// Package docker wraps the Docker client with the operations dockypody
// needs for post-install configuration of running containers.
package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/MahdiBaghbani/dockypody/internal/logger"
)

// Client wraps the Docker API client.
type Client struct {
	cli *client.Client
}

// NewClient creates a Docker client from the environment and verifies
// daemon connectivity.
func NewClient(ctx context.Context) (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker daemon not reachable: %w", err)
	}

	logger.Debug().Msg("docker client connected")

	return &Client{cli: cli}, nil
}

// Close releases Docker client resources.
func (c *Client) Close() error {
	return c.cli.Close()
}

// IsRunning checks if a container is running.
func (c *Client) IsRunning(ctx context.Context, containerID string) (bool, error) {
	info, err := c.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return false, err
	}
	return info.State.Running, nil
}

// Exec runs a command in a running container, streaming demultiplexed
// output to stdout/stderr, and returns the command's exit code.
func (c *Client) Exec(ctx context.Context, containerID string, cmd []string, env []string, stdout, stderr io.Writer) (int, error) {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	}

	resp, err := c.cli.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return -1, fmt.Errorf("failed to create exec: %w", err)
	}

	hijacked, err := c.cli.ContainerExecAttach(ctx, resp.ID, container.ExecStartOptions{})
	if err != nil {
		return -1, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer hijacked.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, hijacked.Reader); err != nil {
		return -1, fmt.Errorf("failed to stream exec output: %w", err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, resp.ID)
	if err != nil {
		return -1, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return inspect.ExitCode, nil
}
