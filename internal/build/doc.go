// Package build runs the site build pipeline.
//
// A build is a strictly ordered sequence of stages: load the shared fragment,
// remove the previous output root, render every page, then copy the top-level
// assets. Every build is a full rebuild; no state carries over between runs.
// All execution paths (CLI build, watch rebuilds, tests) route through Service.
package build
