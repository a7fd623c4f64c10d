package agent

import (
	"github.com/coreos/go-systemd/v22/daemon"

	"garrison/pkg/logging"
)

// NotifyReady tells systemd the agent has finished recovering its job
// counter and is ready to accept verbs, a no-op outside a systemd unit
// (sd_notify reports NOTIFY_SOCKET unset rather than erroring).
func NotifyReady() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logging.Warn("Agent", "sd_notify(READY=1) failed: %s", err)
		return
	}
	if sent {
		logging.Info("Agent", "sent READY=1 to systemd")
	}
}

// NotifyWatchdog pings the systemd watchdog, when running under one;
// callers invoke it on a timer (cmd/garrison-agent uses a fixed
// 15-second interval).
func NotifyWatchdog() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	if err != nil {
		logging.Warn("Agent", "sd_notify(WATCHDOG=1) failed: %s", err)
		return
	}
	if sent {
		logging.Debug("Agent", "sent WATCHDOG=1 to systemd")
	}
}
