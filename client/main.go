package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/config"
	"github.com/puyokura/eventdesk/logger"
)

func main() {
	configPath := flag.String("config", "", "path to eventdesk.yaml")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	// stdout belongs to the screen
	log, err := logger.Init(conf.App.Environment, conf.Log.Level, conf.Log.File)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer log.Sync()

	d, err := newDeps(conf, log)
	if err != nil {
		log.Error("wiring client", zap.Error(err))
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer d.close()

	p := tea.NewProgram(initialModel(d), tea.WithAltScreen(), tea.WithMouseCellMotion())
	d.attach(p)

	if _, err := p.Run(); err != nil {
		log.Error("program exited", zap.Error(err))
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
