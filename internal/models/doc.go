// Package models defines roast entities and persistence interfaces for roastx.
//
// The package contains two categories of types:
//
// 1. Roast payloads: read from the remote statistics API and rendered by the wizard
//   - [Ranking] : Ranked [Entry] cards (solo) or [Comparison] cards (duo)
//   - [Genres], [Quirky], [Summary] : The remaining slides
//   - [Roast] : Every slide of one record, used for export
//   - [HistoryEntry], [DuoRequests] : Past records and pending invitations
//
// 2. Persistent Entities: Local state with full lifecycle management
//   - [Session] : Per-visitor key-value store plus remote API cookies
//   - [Record] : Wrapped records created through this client
//
// [TimeRange] is the window selection shared by both.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
