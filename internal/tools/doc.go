// Package tools locates the external codec binaries tonearm drives.
//
// A Registry records tools that were verified at startup (name, absolute
// path, version, tag) and holds a shared file lock on each binary until it is
// closed. Resolvers chain the registry with configured overrides, extra search
// directories, and PATH lookup. Codec adapters depend only on the Resolver
// interface.
package tools
