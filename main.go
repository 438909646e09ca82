package main

import (
	"embed"
	"flag"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/knotview/pkg/config"
)

//go:embed all:frontend/dist
var assets embed.FS

var configFile = flag.String("config", "", "TOML configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if l := cfg.Log.SetLogger(); l != nil {
		defer l.Close()
	}

	app := NewAppWithConfig(cfg)
	err = wails.Run(&options.App{
		Title:  "knotview",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Printf("wails: %v", err)
	}
}
