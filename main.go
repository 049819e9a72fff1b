package main

import (
	"embed"
	"io/fs"
	"log"

	"ffmpeg-architect/internal/bootstrap"
)

//go:embed all:frontend/dist
var appAssets embed.FS

func main() {
	assets, err := fs.Sub(appAssets, "frontend/dist")
	if err != nil {
		log.Fatalf("load frontend assets: %v", err)
	}

	app, err := bootstrap.NewWithAssets(assets)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
