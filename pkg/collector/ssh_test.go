package collector

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

type execHandler func(command string) (string, uint32)

// startSSHServer serves exec requests for user admin / password secret.
func startSSHServer(t *testing.T, handler execHandler) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "admin" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, fmt.Errorf("denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg, handler)
		}
	}()
	return ln.Addr().String()
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig, handler execHandler) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range requests {
				if req.Type != "exec" {
					req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
					req.Reply(false, nil)
					return
				}
				req.Reply(true, nil)

				out, code := handler(payload.Command)
				if code != 0 {
					io.WriteString(ch.Stderr(), out)
				} else {
					io.WriteString(ch, out)
				}
				status := struct{ Status uint32 }{code}
				ch.SendRequest("exit-status", false, ssh.Marshal(&status))
				return
			}
		}()
	}
}

func deviceFor(addr string) model.Device {
	return model.Device{Name: "lab1", Address: addr, Username: "admin", Password: "secret"}
}

func TestSSHCollectRunsCommands(t *testing.T) {
	addr := startSSHServer(t, func(cmd string) (string, uint32) {
		switch cmd {
		case "show version":
			return "NX-OS 10.3(2)\n", 0
		case "show bogus":
			return "% Invalid command", 1
		case "show slow":
			time.Sleep(2 * time.Second)
			return "late", 0
		case "show vlan":
			return "VLAN 1\n", 0
		}
		return "", 0
	})

	c := New(NewSSHDialer(), []string{"show version", "show bogus", "show slow", "show vlan"}, 2*time.Second, 300*time.Millisecond)
	out := c.Collect(context.Background(), deviceFor(addr))

	require.Len(t, out, 4)
	version, _ := out.Get("show version")
	assert.Equal(t, "NX-OS 10.3(2)\n", version)

	bogus, _ := out.Get("show bogus")
	assert.Equal(t, "Error: command failed: exit status 1: % Invalid command", bogus)

	slow, _ := out.Get("show slow")
	assert.True(t, strings.HasPrefix(slow, "Error: command timeout"), slow)

	vlan, _ := out.Get("show vlan")
	assert.Equal(t, "VLAN 1\n", vlan, "connection survives a timed-out command")
}

func TestSSHDialAuthFailure(t *testing.T) {
	addr := startSSHServer(t, func(string) (string, uint32) { return "", 0 })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewSSHDialer().Dial(ctx, Target{Address: addr, Username: "admin", Password: "wrong", Timeout: 2 * time.Second})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth), "got %v", err)
}

func TestSSHDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewSSHDialer().Dial(ctx, Target{Address: addr, Username: "admin", Password: "secret", Timeout: 2 * time.Second})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
}

func TestSSHCollectUnreachableDevice(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c := New(NewSSHDialer(), testCommands, time.Second, time.Second)
	out := c.Collect(context.Background(), deviceFor(addr))

	require.Len(t, out, len(testCommands))
	for _, r := range out {
		assert.Equal(t, UnableToConnect, r.Output)
	}
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "10.0.0.1:22", hostPort("10.0.0.1", 0))
	assert.Equal(t, "10.0.0.1:2222", hostPort("10.0.0.1", 2222))
	assert.Equal(t, "10.0.0.1:830", hostPort("10.0.0.1:830", 2222))
	assert.True(t, strings.HasPrefix(hostPort("fe80::1", 0), "[fe80::1]"))
}
