// Package models defines the normalized entities exchanged between the
// catalog adapters, the track matcher, and the sync engine.
//
//   - [Track] / [Playlist] : service payloads mapped into a common shape,
//     tagged with their originating service
//   - [MatchResult] : one source track resolved against the destination
//     catalog, with the strategy and confidence that produced it
//   - [SyncResult] : the full outcome of one playlist sync run
//   - [Capabilities] : static per-service limits used for pre-flight checks
//
// All entities are built fresh for each sync run; match decisions are never
// cached across runs.
package models
