// Package core defines the shared language of kudusql.
//
// This package contains:
//   - Connection types (AdapterConfig, Client, Row)
//   - The normalized query Result
//   - The error taxonomy shared by every layer
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
