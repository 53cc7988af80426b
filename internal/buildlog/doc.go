// Package buildlog is the in-process message bus of a build.
//
// Processors and the builder publish two kinds of events: free-form messages
// with a severity Level, and per-asset Status transitions. Any number of
// Subscribers receive both. The bus itself never filters, formats or stores
// anything; that is left to subscribers such as SlogSubscriber and Tally.
package buildlog
