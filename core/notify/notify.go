package notify

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers human-readable event messages. Delivery is
// best-effort: implementations log failures and never propagate them, so
// a broken messaging bridge can never abort reconciliation.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// New returns a CLI-backed notifier, or a logging no-op when no target
// is configured.
func New(cfg Config, log *zap.Logger) Notifier {
	if cfg.Target == "" {
		return &nopNotifier{log: log}
	}
	return &cliNotifier{cfg: cfg, log: log}
}

// cliNotifier shells out to a messaging CLI for delivery.
type cliNotifier struct {
	cfg Config
	log *zap.Logger
}

func (n *cliNotifier) Notify(ctx context.Context, text string) {
	target := n.cfg.Target
	if !strings.HasPrefix(target, "+") {
		target = "+" + target
	}

	timeout := n.cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.cfg.Binary,
		"message", "send",
		"--channel", n.cfg.Channel,
		"--target", target,
		"--message", text,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		n.log.Warn("notification delivery failed",
			zap.String("target", target),
			zap.Error(err),
			zap.String("output", strings.TrimSpace(string(out))),
		)
		return
	}

	n.log.Info("notification sent", zap.String("target", target))
}

// nopNotifier logs messages instead of delivering them.
type nopNotifier struct {
	log *zap.Logger
}

func (n *nopNotifier) Notify(_ context.Context, text string) {
	n.log.Info("notification (delivery disabled)", zap.String("message", text))
}
