// Package policy decides whether a request may reach its handler.
//
// A Table is an ordered list of rules, each pairing an Ant-style path pattern
// (and optionally a set of methods) with the capability a caller needs. The
// first matching rule wins. A request that matches no rule is treated as
// requiring authentication, so forgetting a rule never opens a route.
//
// Tables are built once at startup, from Defaults or a YAML file, and are
// read-only afterwards.
package policy
