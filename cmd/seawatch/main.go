package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seawatch/internal/ais"
	"seawatch/internal/bus"
	"seawatch/internal/config"
	"seawatch/internal/disseminator"
	"seawatch/internal/engine"
	"seawatch/internal/feed"
	"seawatch/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./seawatch.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eventBus := bus.New()
	defer eventBus.Close()

	store := ais.NewStore(ais.StoreConfig{MaxTargets: cfg.AIS.MaxTargets})
	eng := engine.New(engine.Config{FollowNav: cfg.Engine.FollowNavEnabled()}, store, eventBus)

	feedClient, err := feed.New(cfg.Feed.FeedClientConfig())
	if err != nil {
		log.Fatalf("feed client init failed: %v", err)
	}
	if err := feedClient.Connect(ctx, eng.HandleLine); err != nil {
		log.Fatalf("feed connect failed: %v", err)
	}
	defer feedClient.Disconnect()

	var streamClient *ais.StreamClient
	if cfg.AIS.Stream.Enable {
		streamClient, err = ais.NewStreamClient(ais.StreamConfig{
			Addr:           cfg.AIS.Stream.Addr,
			APIKey:         cfg.AIS.Stream.APIKey,
			BoundingBox:    cfg.AIS.Stream.BoundingBox,
			ReconnectDelay: cfg.AIS.Stream.ReconnectDelay,
		})
		if err != nil {
			log.Fatalf("ais stream init failed: %v", err)
		}
		if err := streamClient.Start(ctx, eng.HandleEnvelope); err != nil {
			log.Fatalf("ais stream start failed: %v", err)
		}
		defer streamClient.Close()
		log.Printf("ais stream addr=%s", cfg.AIS.Stream.Addr)
	}

	if cfg.AIS.MQTT.Enable {
		mqttSource, err := ais.NewMQTTSource(ais.MQTTConfig{
			Broker:   cfg.AIS.MQTT.Broker,
			ClientID: cfg.AIS.MQTT.ClientID,
			Topic:    cfg.AIS.MQTT.Topic,
			Username: cfg.AIS.MQTT.Username,
			Password: cfg.AIS.MQTT.Password,
		})
		if err != nil {
			log.Fatalf("ais mqtt init failed: %v", err)
		}
		if err := mqttSource.Start(ctx, eng.HandleEnvelope); err != nil {
			log.Fatalf("ais mqtt start failed: %v", err)
		}
		defer mqttSource.Close()
		log.Printf("ais mqtt broker=%s topic=%s", cfg.AIS.MQTT.Broker, cfg.AIS.MQTT.Topic)
	}

	if cfg.Disseminator.Enable {
		diss, err := disseminator.New(disseminator.Config{
			Broker:      cfg.Disseminator.Broker,
			ClientID:    cfg.Disseminator.ClientID,
			Username:    cfg.Disseminator.Username,
			Password:    cfg.Disseminator.Password,
			TopicPrefix: cfg.Disseminator.TopicPrefix,
		}, eventBus)
		if err != nil {
			log.Fatalf("disseminator init failed: %v", err)
		}
		if err := diss.Start(ctx); err != nil {
			log.Fatalf("disseminator start failed: %v", err)
		}
		defer diss.Close()
		log.Printf("disseminator broker=%s", cfg.Disseminator.Broker)
	}

	if cfg.Web.Enable {
		src := web.Sources{
			Engine:    eng,
			Feed:      feedClient,
			AISStream: streamClient,
			StartedAt: time.Now().UTC(),
		}
		go func() {
			if err := web.Serve(ctx, cfg.Web.Listen, src); err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
		log.Printf("web listen=%s", cfg.Web.Listen)
	}

	// Feed connection state changes are pull-based on the client; surface them
	// on the bus for subscribers that want push.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		last := feedClient.Status()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if status := feedClient.Status(); status != last {
					last = status
					eventBus.Publish(bus.TopicFeedStatus, feedClient.Snapshot())
				}
			}
		}
	}()

	log.Printf("seawatch starting")
	log.Printf("feed type=%s", cfg.Feed.Type)

	<-ctx.Done()
	log.Printf("seawatch stopping")
}
