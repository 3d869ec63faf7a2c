// Package cli provides the interactive Trackify terminal client.
//
// It assembles the same services the HTTP API uses, talks to storage
// directly, and drives them from a read-eval-print loop. The signed-in user
// lives in an explicit session on the App rather than in global state.
//
// Key features:
//   - Register / Login / Logout
//   - Wallet: balance, deposit, withdraw, reconcile
//   - Ledger: record, list, delete
//   - Catalogue: products, addproduct, buy
//   - Reports: summary, export (CSV), statement (PDF), archive, convert
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
