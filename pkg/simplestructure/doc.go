// Package simplestructure provides a reusable library for versioned,
// hierarchical content structures with pluggable repository backends.
//
// It exposes a single Service interface that orchestrates publishable
// entities (stable identities with draft/published version pointers),
// containers (versioned ordered lists of references to other entities),
// selectors (placeholder slots that resolve to one of several candidate
// variants), and the read-time resolution engine that flattens a container
// or selector version into concrete entity versions. Implementations of
// repositories (memory, Postgres) are provided under subpackages.
//
// # Versioning Model
//
// A container never mutates its history: every membership edit produces a
// brand-new immutable reference list owned by a brand-new container
// version. Individual references may be pinned to one historical version
// of their target, or left unpinned so they float to the target's current
// draft or published version at resolution time. Reverting a container to
// an old version therefore reproduces exactly the membership that existed
// when that version was created.
package simplestructure
