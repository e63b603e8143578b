// Package insights provides performance reporting for the Meta Marketing
// API at account, campaign, ad set and ad level.
package insights
