package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHDialer opens password-authenticated SSH sessions. Host keys are not
// verified.
type SSHDialer struct{}

// NewSSHDialer returns the default remote shell dialer.
func NewSSHDialer() *SSHDialer {
	return &SSHDialer{}
}

// Dial connects and authenticates within ctx and target.Timeout.
func (d *SSHDialer) Dial(ctx context.Context, target Target) (Session, error) {
	if target.Address == "" || target.Username == "" {
		return nil, fmt.Errorf("%w: address and username are required", ErrConnect)
	}
	addr := hostPort(target.Address, target.Port)

	password := target.Password
	conf := &ssh.ClientConfig{
		User: target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         target.Timeout,
	}

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classifyDialError(ctx, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if target.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(target.Timeout))
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, conf)
	if err != nil {
		_ = conn.Close()
		return nil, classifyDialError(ctx, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshSession{client: ssh.NewClient(c, chans, reqs)}, nil
}

func hostPort(address string, port int) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	if port <= 0 {
		port = 22
	}
	return net.JoinHostPort(address, strconv.Itoa(port))
}

func classifyDialError(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrConnectTimeout, err)
	case strings.Contains(err.Error(), "unable to authenticate"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	default:
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
}

type sshSession struct {
	client *ssh.Client
}

// Run executes command on a fresh channel. The channel is closed when ctx
// ends first; the connection stays usable for later commands.
func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: open channel: %v", ErrCommand, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %q did not finish in time", ErrCommandTimeout, command)
		}
		return "", ctx.Err()
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			return "", fmt.Errorf("%w: exit status %d: %s", ErrCommand, exitErr.ExitStatus(), msg)
		}
		return "", fmt.Errorf("%w: %v", ErrCommand, err)
	}
	return stdout.String(), nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
