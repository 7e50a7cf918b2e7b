// Package repository resolves the head reference of a single working directory.
//
// A Repository prefers an operator-written override marker file over the
// `.git/HEAD` pointer, classifies the result as a branch or a detached commit,
// and memoizes it until ResolveHeadRef is called again. Read failures are
// treated as missing data; an unresolvable directory reports an empty head
// reference rather than an error.
package repository
