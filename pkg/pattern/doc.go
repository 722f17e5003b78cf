/*
Package pattern defines search patterns (named templates describing families
of YouTube search queries, like the filename conventions of auto-uploading
cameras and phones) and the engine that expands them: a template filler that
substitutes date tokens and constrained random filler runs, and a URL
formatter that combines the filled term with an upload-date filter into a
complete YouTube results URL.

Filling and formatting never fail: malformed constraints fall back to default
ranges, unknown tokens pass through untouched, and missing metadata simply
produces a URL without a date filter. This is a best-effort convenience tool
by design.
*/
package pattern
