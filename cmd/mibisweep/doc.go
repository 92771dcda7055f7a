// Package main hosts the mibisweep CLI entrypoint and command graph.
//
// The Cobra-based command tree drives parameter sweeps against the imaging
// vendor's TIFF generator, renders per-channel PNGs from the results, links
// run images for review, and scaffolds configuration. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
