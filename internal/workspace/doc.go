// Package workspace owns the transient directory that holds one run's page
// artifacts and producer scratch files.
//
// Ephemeral mode creates a uniquely named directory (e.g.
// reportbuilder-20260101-120000-1a2b3c4d) under a base directory. Fixed mode
// uses a configured path that must be absent or empty when the run starts.
// Both modes remove the directory on Teardown: a workspace never outlives its run.
//
// Artifact paths are allocated from explicit sequence numbers and zero-padded
// (page_000001.pdf), so lexical and numeric order agree even though merge order
// never depends on directory listings.
package workspace
