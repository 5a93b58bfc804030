package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/puyokura/eventdesk/config"
	"github.com/puyokura/eventdesk/devapi"
	"github.com/puyokura/eventdesk/logger"
	"github.com/puyokura/eventdesk/model"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to eventdesk.yaml")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	// the console shares the terminal, so logs go to stderr
	log, err := logger.Init(conf.App.Environment, conf.Log.Level, "")
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer log.Sync()

	store := devapi.NewStore(conf.DevAPI.DataFile)
	if err := store.Load(); err != nil {
		log.Error("loading store", zap.Error(err))
	}
	if err := store.SeedAdmin(conf.DevAPI.AdminEmail, conf.DevAPI.AdminPassword); err != nil {
		log.Error("seeding admin", zap.Error(err))
	}

	api := devapi.NewServer(conf.DevAPI, store, log)
	server := &http.Server{
		Addr:              conf.DevAPI.Addr(),
		Handler:           api.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverStopped := make(chan struct{})
	go func() {
		defer close(serverStopped)
		log.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go console(store, stop)

	select {
	case <-ctx.Done():
	case <-serverStopped:
	}

	fmt.Println("\nShutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	<-serverStopped
}

// console reads operator commands from stdin until stop or EOF.
func console(store *devapi.Store, stop context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Server console ready. Type 'help' for commands.")
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Println("Available commands: users, events, stop")
		case "users":
			for _, u := range store.Users() {
				state := "active"
				if !u.IsActive() {
					state = "inactive"
				}
				fmt.Printf("%4d  %-30s %-14s %s\n", u.ID, u.Email, u.Role.Label(), state)
			}
		case "events":
			now := time.Now()
			for _, e := range store.Events() {
				fmt.Printf("%4d  %-30s %s %-9s %d/%d\n",
					e.ID, e.Title, e.Date, model.StatusAt(e, now), e.CurrentParticipants, e.MaxParticipants)
			}
		case "stop":
			fmt.Println("Stopping server...")
			stop()
			return
		default:
			fmt.Println("Unknown command.")
		}
	}
}
