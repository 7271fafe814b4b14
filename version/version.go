// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package version identifies the application build a peer announces during
// signalling, so a node can refuse to pair with an incompatible peer before
// any WebRTC handshake is attempted.
package version

import "fmt"

// Application is the version a peer reports in its NodeInfo.Client field.
type Application struct {
	Name  string
	Major int
	Minor int
	Patch int
}

// String renders the version the way it appears on the wire and in logs,
// e.g. "flo/1.0.1".
func (a Application) String() string {
	return fmt.Sprintf("%s/%d.%d.%d", a.Name, a.Major, a.Minor, a.Patch)
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than
// other, comparing Major/Minor/Patch in that order.
func (a Application) Compare(other Application) int {
	if a.Major != other.Major {
		if a.Major < other.Major {
			return -1
		}
		return 1
	}
	if a.Minor != other.Minor {
		if a.Minor < other.Minor {
			return -1
		}
		return 1
	}
	switch {
	case a.Patch < other.Patch:
		return -1
	case a.Patch > other.Patch:
		return 1
	default:
		return 0
	}
}

// Before reports whether a precedes other.
func (a Application) Before(other Application) bool {
	return a.Compare(other) < 0
}

// Compatible reports whether a and other may negotiate a connection.
// Peers sharing a major version are assumed wire-compatible; a minor/patch
// mismatch is tolerated since this fabric's wire messages are additive.
func (a Application) Compatible(other Application) bool {
	return a.Name == other.Name && a.Major == other.Major
}

// Current is the version this build of the module announces.
func Current() Application {
	return Application{Name: "flo", Major: 1, Minor: 0, Patch: 0}
}

// Parse recovers an Application from its String() form ("name/major.minor.patch").
// It returns false if client does not match that shape, the safe-fail case
// callers should treat as an incompatible peer rather than a panic.
func Parse(client string) (Application, bool) {
	var a Application
	var name string
	n, err := fmt.Sscanf(client, "%s", &name)
	if err != nil || n != 1 {
		return a, false
	}
	idx := lastSlash(name)
	if idx < 0 {
		return a, false
	}
	a.Name = name[:idx]
	if _, err := fmt.Sscanf(name[idx+1:], "%d.%d.%d", &a.Major, &a.Minor, &a.Patch); err != nil {
		return Application{}, false
	}
	return a, true
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
