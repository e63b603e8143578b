// Package adsets provides ad set CRUD operations for the Meta Marketing
// API, including budgets, schedules and targeting specs.
package adsets
