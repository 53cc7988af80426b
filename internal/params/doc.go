// Package params holds the parameter model shared by assets, bundles and
// processors: a tagged Value and an ordered, hashable Set of named values.
package params
