package main

import (
	"embed"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/agergec/spantrace/internal/config"
	"github.com/agergec/spantrace/internal/logutil"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load("")
	if err != nil {
		println("Error loading config:", err.Error())
		os.Exit(1)
	}
	log := logutil.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	app := NewApp(cfg, log)

	appMenu := menu.NewMenu()

	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Open Trace", keys.CmdOrCtrl("o"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:open-trace")
	})
	fileMenu.AddText("Save Log", keys.CmdOrCtrl("s"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:save-log")
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Export Diagram", keys.CmdOrCtrl("e"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:export-diagram")
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(cd *menu.CallbackData) {
		runtime.Quit(app.ctx)
	})

	editMenu := appMenu.AddSubmenu("Edit")
	editMenu.AddText("Cut", keys.CmdOrCtrl("x"), nil)
	editMenu.AddText("Copy", keys.CmdOrCtrl("c"), nil)
	editMenu.AddText("Paste", keys.CmdOrCtrl("v"), nil)
	editMenu.AddText("Select All", keys.CmdOrCtrl("a"), nil)

	viewMenu := appMenu.AddSubmenu("View")
	viewMenu.AddText("DN Grid", keys.CmdOrCtrl("g"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:dn-grid")
	})
	viewMenu.AddText("Call Setup Diagram", keys.CmdOrCtrl("d"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:call-setup")
	})

	err = wails.Run(&options.App{
		Title:  "SpanTrace v" + Version + " - SIP Span Trace Viewer",
		Width:  1400,
		Height: 900,
		Menu:   appMenu,
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
		println("Error:", err.Error())
	}
}
