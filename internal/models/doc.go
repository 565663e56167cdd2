// Package models defines the domain entities and collaborator ports for the flute notes library.
//
// The package contains two categories of types:
//
// 1. Records: plain structs exchanged between layers
//   - [Song] : a titled, user-owned list of lines
//   - [Line] : one lyrics/notation pair
//   - [User] : a local account known to the session gateway
//   - [Session] : the read-only projection of the signed-in user
//
// 2. Ports: interfaces the view controller consumes
//   - [CollectionStore] : persists songs scoped to their owner
//   - [SessionGateway] : resolves, announces and ends sessions
//
// Ports live here so that storage, auth and presentation packages depend on models and never on each other.
package models
