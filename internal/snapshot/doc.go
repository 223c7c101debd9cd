// Package snapshot produces the ordered, headered, paginated projections
// consumed by list and grid renderers. Day-bucket group heads are computed
// with a one-row lookback carried across page fetches as an explicit cursor,
// so header placement is identical for any page-size split of the same
// result set.
package snapshot
