// Docsplice expands snippet markers in markdown documentation.
//
// It reads .md/.mdx files, replaces <Snippet file="..." /> markers with
// the referenced local or remote content, and writes the expanded
// documents back out. Markdown snippets are expanded recursively; any
// other file type is embedded as a fenced code block.
//
// Usage:
//
//	# Expand every document under the docs directory
//	docsplice build docs/
//
//	# Serve a live preview on :8091
//	docsplice serve --docs-dir docs/
//
//	# Convert an external source into a snippet
//	docsplice import https://example.com/changelog.html
//
//	# Show version information
//	docsplice version
package main

func main() {
	Execute()
}
