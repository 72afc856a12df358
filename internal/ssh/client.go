// Package ssh dials SSH hosts and opens SFTP sessions on them.
package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"vterm/internal/logging"
)

// Config holds connection settings.
type Config struct {
	Host          string
	Port          int
	User          string
	KeyPath       string
	KeyPassphrase string
	Password      string // used when no key works
	Timeout       time.Duration
}

// Client owns one SSH connection and the SFTP session riding on it.
type Client struct {
	cfg Config

	mu   sync.Mutex
	conn *ssh.Client
	sftp *sftp.Client
}

// NewClient returns an unconnected client.
func NewClient(cfg Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg}
}

// SFTP returns a live SFTP session, dialing or redialing as needed.
func (c *Client) SFTP(ctx context.Context) (*sftp.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if _, _, err := c.conn.SendRequest("keepalive@openssh.com", true, nil); err == nil && c.sftp != nil {
			return c.sftp, nil
		}
		c.closeLocked()
	}

	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(c.conn)
	if err != nil {
		c.closeLocked()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	c.sftp = client
	return client, nil
}

func (c *Client) dial(ctx context.Context) error {
	clientCfg, err := c.clientConfig()
	if err != nil {
		return fmt.Errorf("failed to build SSH config: %w", err)
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprint(c.cfg.Port))
	logging.Info("connecting to SSH", "addr", addr, "user", c.cfg.User)

	dialer := &net.Dialer{Timeout: c.cfg.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientCfg)
	if err != nil {
		netConn.Close()
		return fmt.Errorf("SSH handshake failed: %w", err)
	}
	c.conn = ssh.NewClient(sshConn, chans, reqs)
	return nil
}

// clientConfig tries the configured key, then the usual key files, then the
// password.
func (c *Client) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	keys := []string{}
	if c.cfg.KeyPath != "" {
		keys = append(keys, c.cfg.KeyPath)
	}
	keys = append(keys, "~/.ssh/id_ed25519", "~/.ssh/id_ecdsa", "~/.ssh/id_rsa")
	for _, keyPath := range keys {
		signer, err := c.loadKey(expandPath(keyPath))
		if err != nil {
			if !os.IsNotExist(err) {
				logging.Warn("failed to load SSH key", "path", keyPath, "error", err)
			}
			continue
		}
		auth = append(auth, ssh.PublicKeys(signer))
		break
	}
	if c.cfg.Password != "" {
		auth = append(auth, ssh.Password(c.cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no authentication method available")
	}

	return &ssh.ClientConfig{
		User: c.cfg.User,
		Auth: auth,
		// TODO: verify against known_hosts once the config grows a host key setting.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.cfg.Timeout,
	}, nil
}

func (c *Client) loadKey(path string) (ssh.Signer, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if c.cfg.KeyPassphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(key, []byte(c.cfg.KeyPassphrase))
	}
	return ssh.ParsePrivateKey(key)
}

// Close tears down the SFTP session and the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	var err error
	if c.sftp != nil {
		err = c.sftp.Close()
		c.sftp = nil
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
		c.conn = nil
	}
	return err
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
