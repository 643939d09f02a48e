// Package blobstore defines the abstract Blob Store contract (spec §6.1) that the
// Coldbase engine depends on as its only external collaborator. Concrete adapters
// (S3, Azure Blob, local filesystem) are out of scope for this module; see
// the memstore subpackage for the in-memory fixture used by tests and local
// development.
package blobstore
