// Package contentid turns user input into an ordered, deduplicated list of
// content identifiers.
//
// Tokens may be bare ids or watch URLs; Normalize extracts the id from the URL
// forms the fetch tool accepts. Sources are command-line arguments, a text or
// JSON file, or standard input, selected through Resolve.
package contentid
