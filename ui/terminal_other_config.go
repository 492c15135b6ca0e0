//go:build !windows

package ui

// Frames are wrapped in OSC 2026 so terminals swap them in atomically.
const supportsSyncOutput = true
