// Package pipeline assembles a report: it allocates pages in strict sequence,
// lets each producer draw onto a fresh surface, persists the artifact, merges
// the manifest in creation order and always tears the workspace down.
//
// Runs are strictly sequential. The manifest, not the filesystem, decides merge order.
package pipeline
