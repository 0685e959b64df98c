// Package records turns a flattened API page into schema-aligned rows.
//
// The API wraps its payload in a "result" array. After flattening, every key
// of element n starts with "result_<n>_" and the keys of one element are
// contiguous:
//
//	last_page              4
//	result_0_name          Falcon 9
//	result_0_provider_name SpaceX
//	result_1_name          Electron
//
// Parse groups those keys into Records, InferSchema picks the widest record of
// the first page as the column set for the whole endpoint, and BuildRows
// aligns every record to that column set, writing NA where a record has no
// value. Fields outside the schema are dropped.
package records
