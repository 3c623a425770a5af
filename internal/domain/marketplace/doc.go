// Package marketplace contains the domain model for synchronizing local
// inventory with external marketplace listings: credentials and access
// tokens, remote listing snapshots, the sync queue and its aggregation
// rules, the two-phase feed state machine, and stock reconciliation.
//
// Port interfaces for the marketplace API and persistence live here;
// concrete implementations are in the infrastructure layer.
package marketplace
