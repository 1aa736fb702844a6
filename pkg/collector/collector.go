// Package collector runs the diagnostic command list against each device
// over a remote shell.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/rs/zerolog/log"
)

// UnableToConnect is recorded for every command of an unreachable device.
const UnableToConnect = "Unable to connect"

var (
	ErrConnect        = errors.New("connection failed")
	ErrAuth           = errors.New("authentication failed")
	ErrConnectTimeout = errors.New("connect timeout")
	ErrCommand        = errors.New("command failed")
	ErrCommandTimeout = errors.New("command timeout")
)

// Target is what a Dialer needs to open a session.
type Target struct {
	Address  string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// Dialer opens remote shell sessions.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}

// Session runs commands on an established connection.
type Session interface {
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Collector gathers command outputs from devices one at a time.
type Collector struct {
	dialer         Dialer
	commands       []string
	connectTimeout time.Duration
	commandTimeout time.Duration
}

// New creates a collector. Zero timeouts fall back to 3s connect and 30s per
// command.
func New(dialer Dialer, commands []string, connectTimeout, commandTimeout time.Duration) *Collector {
	if connectTimeout <= 0 {
		connectTimeout = 3 * time.Second
	}
	if commandTimeout <= 0 {
		commandTimeout = 30 * time.Second
	}
	return &Collector{
		dialer:         dialer,
		commands:       append([]string(nil), commands...),
		connectTimeout: connectTimeout,
		commandTimeout: commandTimeout,
	}
}

// Commands returns the command list in execution order.
func (c *Collector) Commands() []string {
	return append([]string(nil), c.commands...)
}

// Collect runs every command on device over a single session. A failed
// connection yields UnableToConnect for all commands without running any.
// Once ctx is done the outputs are incomplete; callers must check ctx.Err().
func (c *Collector) Collect(ctx context.Context, device model.Device) model.CommandOutput {
	logger := log.With().Str("device", device.Name).Str("address", device.Address).Logger()
	logger.Info().Msg("Collecting device information")

	outputs := make(model.CommandOutput, 0, len(c.commands))

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	session, err := c.dialer.Dial(dialCtx, Target{
		Address:  device.Address,
		Port:     device.Port,
		Username: device.Username,
		Password: device.Password,
		Timeout:  c.connectTimeout,
	})
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Collection cancelled")
			return outputs
		}
		logger.Warn().Err(err).Msg("Unable to connect")
		for _, cmd := range c.commands {
			outputs = append(outputs, model.CommandResult{Command: cmd, Output: UnableToConnect})
		}
		return outputs
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug().Err(err).Msg("Closing session")
		}
	}()

	for _, cmd := range c.commands {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Collection cancelled")
			return outputs
		}
		logger.Debug().Str("command", cmd).Msg("Running command")
		out, err := c.run(ctx, session, cmd)
		if err != nil {
			logger.Warn().Err(err).Str("command", cmd).Msg("Command failed")
			out = fmt.Sprintf("Error: %v", err)
		}
		outputs = append(outputs, model.CommandResult{Command: cmd, Output: out})
	}
	return outputs
}

func (c *Collector) run(ctx context.Context, session Session, cmd string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()
	return session.Run(cmdCtx, cmd)
}

// CollectBatch processes devices sequentially, in order. It stops early when
// ctx is done.
func (c *Collector) CollectBatch(ctx context.Context, devices []model.Device) model.BatchOutputs {
	batch := make(model.BatchOutputs, 0, len(devices))
	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		batch = append(batch, model.DeviceOutputs{Device: d.Name, Outputs: c.Collect(ctx, d)})
	}
	return batch
}

// Unreachable counts devices whose every command holds UnableToConnect.
func Unreachable(batch model.BatchOutputs) int {
	n := 0
	for _, d := range batch {
		if len(d.Outputs) == 0 {
			continue
		}
		down := true
		for _, r := range d.Outputs {
			if r.Output != UnableToConnect {
				down = false
				break
			}
		}
		if down {
			n++
		}
	}
	return n
}
