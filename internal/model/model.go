// Package model defines data structures for builder-profile.
//
// This package contains:
//   - Document / Operation / Action: document-graph framework types
//   - Drive / FileNode: drive (document container) types
//   - Config: server configuration
//   - JSON-RPC 2.0 and MCP: request/response/error structures
package model
