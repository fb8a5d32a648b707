package types

// Version is the canonical project version.
// The library, the changelogctl binary and the capture file format share
// this version.
const Version = "0.1.0"

// CaptureVersion is the version stamped into capture file headers.
// It moves in lockstep with Version.
const CaptureVersion = Version
