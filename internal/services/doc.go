// Package services defines the shared error taxonomy and context plumbing
// used by the sweep pipeline components.
//
// Sentinel errors classify per-combination outcomes (collision, timeout,
// external tool failure) so the sweep controller can decide whether to skip,
// record, or abort without string matching.
package services
