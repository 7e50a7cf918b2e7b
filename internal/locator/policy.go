package locator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/temirov/whatgitbranch/internal/cache"
)

// ScanWhen names the scanning policy setting.
type ScanWhen string

// Scanning policy settings.
const (
	ScanWhenNever       ScanWhen = ScanWhen("never")
	ScanWhenOff         ScanWhen = ScanWhen("off")
	ScanWhenAlways      ScanWhen = ScanWhen("always")
	ScanWhenHTTPRequest ScanWhen = ScanWhen("http-request")
	ScanWhenManual      ScanWhen = ScanWhen("manual")
	ScanWhenCLI         ScanWhen = ScanWhen("cli")
	ScanWhenHeartbeat   ScanWhen = ScanWhen("heartbeat")

	// DefaultScanWhen applies when no setting is configured.
	DefaultScanWhen = ScanWhenHeartbeat
)

const (
	unknownScanWhenMessageConstant  = "unknown scan policy"
	unknownScanWhenTemplateConstant = "%w %q (expected one of %s)"
	scanWhenListSeparatorConstant   = ", "
)

// ErrUnknownScanWhen indicates an unrecognized scanning policy setting.
var ErrUnknownScanWhen = errors.New(unknownScanWhenMessageConstant)

var knownScanWhenSettings = []ScanWhen{
	ScanWhenNever,
	ScanWhenOff,
	ScanWhenAlways,
	ScanWhenHTTPRequest,
	ScanWhenManual,
	ScanWhenCLI,
	ScanWhenHeartbeat,
}

// ScanWhenValues lists the accepted setting names.
func ScanWhenValues() []string {
	return lo.Map(knownScanWhenSettings, func(setting ScanWhen, _ int) string {
		return string(setting)
	})
}

// ParseScanWhen converts a configured value into a ScanWhen. Empty input yields the default.
func ParseScanWhen(value string) (ScanWhen, error) {
	normalized := ScanWhen(strings.ToLower(strings.TrimSpace(value)))
	if len(normalized) == 0 {
		return DefaultScanWhen, nil
	}
	if !lo.Contains(knownScanWhenSettings, normalized) {
		return "", fmt.Errorf(unknownScanWhenTemplateConstant, ErrUnknownScanWhen, value, strings.Join(ScanWhenValues(), scanWhenListSeparatorConstant))
	}
	return normalized, nil
}

// Invocation identifies what kind of caller is asking for directories.
type Invocation int

// Invocation kinds.
const (
	InvocationRequest Invocation = iota
	InvocationHeartbeat
	InvocationCommandLine
	InvocationMaintenance
)

// String returns the invocation label.
func (invocation Invocation) String() string {
	switch invocation {
	case InvocationHeartbeat:
		return "heartbeat"
	case InvocationCommandLine:
		return "command-line"
	case InvocationMaintenance:
		return "maintenance"
	default:
		return "request"
	}
}

// PermitsScan evaluates the scanning policy table for one invocation.
func PermitsScan(setting ScanWhen, invocation Invocation, activeCacheEmpty bool) bool {
	switch setting {
	case ScanWhenNever, ScanWhenOff:
		return false
	case ScanWhenAlways, ScanWhenHTTPRequest:
		return true
	case ScanWhenManual:
		return invocation == InvocationMaintenance || activeCacheEmpty
	case ScanWhenCLI:
		return invocation == InvocationCommandLine || invocation == InvocationMaintenance
	case ScanWhenHeartbeat:
		return invocation == InvocationHeartbeat || invocation == InvocationCommandLine || invocation == InvocationMaintenance
	default:
		return false
	}
}

// BackendFor selects the cache backend for a scanning setting.
func BackendFor(setting ScanWhen) cache.Backend {
	switch setting {
	case ScanWhenAlways, ScanWhenHTTPRequest:
		return cache.BackendExpiring
	default:
		return cache.BackendDurable
	}
}
