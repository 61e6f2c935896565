// Package runstore persists completed clustering runs in SQLite.
//
// The schema is owned by the embedded migrations under migrations/ and
// applied with golang-migrate when a Store is opened. Each row keeps the
// input points and labels so charts can be rendered after the fact.
package runstore
