package client

import (
	"sync"

	"github.com/dd0wney/kvconform/pkg/wire"
)

// APIVersionCurrent is the newest API version this client speaks.
const APIVersionCurrent = wire.ProtocolVersion

var (
	apiVersionMu sync.Mutex
	apiVersion   int
)

// SelectAPIVersion pins the process-wide API version. It must be called
// before the first Open. Calling it again with the same version is a no-op;
// calling it with a different version fails with a ConfigurationError.
func SelectAPIVersion(version int) error {
	apiVersionMu.Lock()
	defer apiVersionMu.Unlock()

	if version < 1 || version > APIVersionCurrent {
		return &ConfigurationError{Option: "api_version", Cause: ErrAPIVersionUnsupported}
	}
	if apiVersion != 0 && apiVersion != version {
		return &ConfigurationError{Option: "api_version", Cause: ErrAPIVersionAlreadySet}
	}
	apiVersion = version
	return nil
}

// selectedAPIVersion returns the pinned version, or an error when none has
// been selected yet.
func selectedAPIVersion() (int, error) {
	apiVersionMu.Lock()
	defer apiVersionMu.Unlock()
	if apiVersion == 0 {
		return 0, &ConfigurationError{Option: "api_version", Cause: ErrAPIVersionRequired}
	}
	return apiVersion, nil
}

// resetAPIVersion clears the process-wide selection. Test helper only.
func resetAPIVersion() {
	apiVersionMu.Lock()
	defer apiVersionMu.Unlock()
	apiVersion = 0
}
