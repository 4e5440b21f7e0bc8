package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/strefethen/soundtouch-hub-go/internal/auth"
	"github.com/strefethen/soundtouch-hub-go/internal/config"
	"github.com/strefethen/soundtouch-hub-go/internal/hub"
	"github.com/strefethen/soundtouch-hub-go/internal/mqtt"
	"github.com/strefethen/soundtouch-hub-go/internal/server"
	"github.com/strefethen/soundtouch-hub-go/pkg/discovery"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for this subject and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of an issued token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if *issueFor != "" {
		if cfg.JWTSecret == "" {
			log.Fatalf("JWT_SECRET is not set")
		}
		token, err := auth.IssueToken(cfg.JWTSecret, *issueFor, "", *tokenTTL)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger := log.Default()
	deviceOpts := []soundtouch.Option{
		soundtouch.WithTimeout(time.Duration(cfg.RequestTimeoutMs) * time.Millisecond),
		soundtouch.WithLogger(logger),
	}
	if cfg.NotifyReconnect {
		deviceOpts = append(deviceOpts, soundtouch.WithReconnect(events.BackoffConfig{}))
	}

	hubOpts := hub.Options{
		Hosts:          cfg.Devices,
		ResyncSchedule: cfg.ResyncSchedule,
		Connect:        hub.Connector(deviceOpts...),
		Logger:         logger,
	}
	if cfg.DiscoveryEnabled {
		hubOpts.Discover = func(ctx context.Context) ([]string, error) {
			found, err := discovery.DiscoverDevices(ctx, discovery.Options{
				Timeout:   time.Duration(cfg.DiscoveryTimeoutMs) * time.Millisecond,
				MDNS:      true,
				SSDP:      true,
				Interface: cfg.DiscoveryInterface,
				Logger:    logger,
			})
			hosts := make([]string, 0, len(found))
			for _, f := range found {
				hosts = append(hosts, f.Host)
			}
			return hosts, err
		}
	}

	var broker *mqtt.Client
	var mqttStatus func() bool
	if cfg.MQTTBroker != "" {
		broker, err = mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			QoS:         1,
		})
		if err != nil {
			log.Fatalf("mqtt error: %v", err)
		}
		hubOpts.Mirror = mqtt.NewMirror(broker, cfg.MQTTTopicPrefix, logger)
		mqttStatus = broker.IsConnected
		log.Printf("MQTT: Mirroring state to %s under %s/", cfg.MQTTBroker, cfg.MQTTTopicPrefix)
	}

	h, err := hub.New(hubOpts)
	if err != nil {
		log.Fatalf("hub init error: %v", err)
	}
	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	err = h.Start(startCtx)
	cancelStart()
	if err != nil {
		log.Fatalf("hub start error: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewHandler(cfg, h, mqttStatus, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-shutdownCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		h.Stop(ctx)
		if err := broker.Close(); err != nil {
			log.Printf("mqtt close error: %v", err)
		}
	}()

	log.Printf("soundtouch-hub listening on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	<-stopped
}
