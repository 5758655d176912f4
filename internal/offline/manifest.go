// Package offline pre-populates a named response cache with the course's
// static assets and serves requests from it before going to the network.
//
// The worker moves through four phases:
//
//	uninstalled → installing → active → serving
//
// Install is all-or-nothing: if any asset cannot be fetched the phase falls
// back to uninstalled and nothing is stored. Activate deletes every cache
// whose name is not the manifest's and starts serving immediately. The cache
// is only written during install; requests never add to it.
package offline

// DefaultCacheName is the versioned name of the asset cache. Changing it
// makes the next activation delete the previous cache.
const DefaultCacheName = "bmc-cache-v1"

// Manifest names a cache and the asset paths installed into it. Paths are
// resolved against the asset base URL.
type Manifest struct {
	Name   string
	Assets []string
}

// DefaultAssets is the course shell: page, stylesheet, script, unit data,
// icons and the exam page.
var DefaultAssets = []string{
	"./",
	"./index.html",
	"./assets/css/styles.css",
	"./assets/js/app.js",
	"./data/units.json",
	"./assets/icons/logo-bmc.svg",
	"./assets/icons/favicon.ico",
	"./assets/icons/icon-192.png",
	"./assets/icons/icon-512.png",
	"./exam/index.html",
}

// DefaultManifest returns the built-in manifest.
func DefaultManifest() Manifest {
	assets := make([]string, len(DefaultAssets))
	copy(assets, DefaultAssets)
	return Manifest{Name: DefaultCacheName, Assets: assets}
}
