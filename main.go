// Package main provides the entry point for the Contour Atlas application.
package main

import (
	"log"
	"os"
	"path/filepath"

	"contour-atlas/internal/app"
	"contour-atlas/internal/version"
	"contour-atlas/ui/mainwindow"
	"contour-atlas/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appTitle = "Contour Atlas"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	appPrefs := prefs.Load()

	assetRoot := appPrefs.AssetDir
	if len(os.Args) > 1 {
		assetRoot = os.Args[1]
	}
	if assetRoot == "" {
		assetRoot = defaultAssetRoot()
	}
	log.Printf("Contour assets: %s", assetRoot)

	state := app.NewState(assetRoot)

	fyneApp := fyneapp.NewWithID("contour-atlas")
	win := mainwindow.New(fyneApp, state, appPrefs)
	win.ShowAndRun()
}

// defaultAssetRoot looks for a data directory next to the binary, then in
// the working directory.
func defaultAssetRoot() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "data")
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	return "data"
}
