package main

import "github.com/vamrpc/vamrpc/internal/paths"

// ///////////////////////////////////////////////
// Path Aliases
// ///////////////////////////////////////////////

// SupportPaths aliases [paths.SupportDir] into the main package so that
// daemon code can reference path helpers without qualifying the internal
// package name. This file has no build constraints because path construction
// is platform-independent; [filepath.Join] inside [paths.SupportDir] handles
// OS-specific separators automatically.
type SupportPaths = paths.SupportDir
