// Package dom holds the in-memory document the rest of formguard mutates. It
// wraps golang.org/x/net/html nodes and uses htmlquery for XPath lookups so
// server-rendered markup can be parsed, decorated (annotations, notices,
// counters) and rendered back out. Nothing in this package is safe for
// concurrent use; callers dispatch every mutation from a single event loop.
package dom
