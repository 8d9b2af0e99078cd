// Command pm1telemetry serves the driver's read-only WebSocket
// telemetry bridge plus a minimal embedded status page, structured the
// way the teacher's dashboard binary wires its HTTP mux, embedded
// assets, and graceful shutdown.
package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/chassislog"
	"github.com/autolaborcenter/pm1-driver/internal/config"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
	"github.com/autolaborcenter/pm1-driver/internal/portscan"
	"github.com/autolaborcenter/pm1-driver/internal/telemetry"
)

//go:embed status.html
var statusFS embed.FS

func main() {
	configPath := flag.String("config", "/etc/pm1-driver/config.yaml", "Path to config file")
	listenAddr := flag.String("listen", "", "Override telemetry listen address (e.g. :8088)")
	portFlag := flag.String("port", "", "Comma-separated serial port candidates (default: enumerate all)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[pm1telemetry] starting")

	cfg := config.Load(*configPath)
	if *listenAddr != "" {
		cfg.Telemetry.ListenAddr = *listenAddr
	}

	var explicit []string
	if *portFlag != "" {
		explicit = strings.Split(*portFlag, ",")
	} else if len(cfg.Serial.Ports) > 0 {
		explicit = cfg.Serial.Ports
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[pm1telemetry] received %v, shutting down", sig)
		cancel()
	}()

	model := kinematics.DefaultChassisModel()
	opt := kinematics.DefaultRampOptimizer()

	bridge := telemetry.New()
	recorder := chassislog.New(cfg.Logging.Path, cfg.Logging.IntervalMs, cfg.Logging.Enabled)
	defer recorder.Close()

	go portscan.Supervise(ctx, explicit, model, opt, func(ev portscan.SupervisorEvent) bool {
		switch ev.Kind {
		case portscan.Connected:
			log.Println("[pm1telemetry] chassis connected")
			bridge.Broadcast(ev.Chassis.Snapshot(), "connected")
		case portscan.Disconnected:
			log.Println("[pm1telemetry] chassis disconnected, reconnecting")
		case portscan.ConnectFailed:
			log.Printf("[pm1telemetry] connect failed: %v", ev.Err)
		case portscan.ChassisEvent:
			snap := ev.Chassis.Snapshot()
			recorder.Record(snap)
			bridge.Broadcast(snap, telemetry.EventLabel(ev.Inner))
		}
		return ctx.Err() == nil
	})

	if !cfg.Telemetry.Enabled && *listenAddr == "" {
		log.Println("[pm1telemetry] telemetry.enabled is false; serving anyway since this binary's only job is telemetry")
	}

	webFS, err := fs.Sub(statusFS, ".")
	if err != nil {
		log.Fatalf("[pm1telemetry] embedded assets: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(webFS)))
	mux.HandleFunc("/ws", bridge.HandleWS)

	srv := &http.Server{Addr: cfg.Telemetry.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[pm1telemetry] listening on %s", cfg.Telemetry.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[pm1telemetry] server exited: %v", err)
	}
}
