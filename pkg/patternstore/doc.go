/*
Package patternstore persists user-authored search patterns and the history
of generated searches in SQLite. Patterns are stored as their JSON form so
the on-disk shape matches the API and export formats exactly; the store only
indexes what it needs for lookups.
*/
package patternstore
