// Package api hosts the local course mirror: a JSON API over the tracker
// commands and a static-asset proxy that answers from the offline cache
// before the network.
package api
