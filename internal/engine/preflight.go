package engine

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// Preflight file locations, overridable in tests.
var (
	ProcVersionPath = "/proc/version"
	KVMDevicePath   = "/dev/kvm"
)

// WSLHint is returned when WSL 2 runs without nested virtualisation.
const WSLHint = "WSL 2 detected but /dev/kvm is missing. " +
	"Enable nested virtualization in .wslconfig for native orchestration."

// CheckWSL reports a hint when the host is WSL and KVM is unavailable.
// It returns an empty string when nothing needs attention.
func CheckWSL() string {
	data, err := os.ReadFile(ProcVersionPath)
	if err != nil {
		return ""
	}

	version := strings.ToLower(string(data))
	if !strings.Contains(version, "microsoft") && !strings.Contains(version, "wsl") {
		return ""
	}

	if _, err = os.Stat(KVMDevicePath); errors.Is(err, fs.ErrNotExist) {
		return WSLHint
	}
	return ""
}
