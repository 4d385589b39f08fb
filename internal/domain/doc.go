// Package domain contains the core model of the Data Conservancy toolkit:
// packages and their serializations, checksums, registry entries, metadata
// schemes and formats, and ingest reports.
//
// The domain is transport- and persistence-agnostic: it does not depend on BagIt
// parsing, net/http, SQL or the filesystem. Infra/adapters map into/from these types.
package domain
