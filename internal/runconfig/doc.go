// Package runconfig edits the imaging tool's persistent JSON configuration
// ahead of each TIFF generation run.
//
// The tool keeps its settings in a flat JSON object with dotted keys. Before
// every invocation the builder resets the background removal keys to
// disabling sentinels and applies only the values for the methods enabled in
// the current parameter combination, so state never leaks between sweep
// iterations. The package also derives the archive subdirectory identifier
// that encodes which parameters produced a given artifact.
package runconfig
