// Package render holds the immutable per-run rendering configuration and
// draws question slides. The same Config value feeds the slide renderer and
// the video encoder so sizes and frame rates can never disagree.
package render
