// Command leak-sensor watches a water-leak probe on a GPIO line, drives the
// indicator LEDs and sends alerts to a chat webhook and MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/leak-sensor/internal/config"
	"github.com/sweeney/leak-sensor/internal/discovery"
	"github.com/sweeney/leak-sensor/internal/gpio"
	"github.com/sweeney/leak-sensor/internal/logger"
	"github.com/sweeney/leak-sensor/internal/logic"
	"github.com/sweeney/leak-sensor/internal/mqtt"
	"github.com/sweeney/leak-sensor/internal/notify"
	"github.com/sweeney/leak-sensor/internal/status"
	"github.com/sweeney/leak-sensor/internal/web"
)

const shutdownTimeout = 5 * time.Second

var errInvalidLogLevel = errors.New("invalid log level")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		printState bool
	)

	cmd := &cobra.Command{
		Use:   "leak-sensor",
		Short: "Watch a water-leak probe and raise alerts.",
		Long: `Polls the leak probe on a GPIO line, debounces it and tracks each leak
episode. A new leak sends an alert right away, a reminder follows every 30s
while it lasts, and a final message reports the total duration once the
probe is dry again.

Settings come from a YAML file; flags given on the command line win.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd.Flags(), cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, printState, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	f.BoolVar(&printState, "print-state", false, "print the current sensor reading and exit")
	f.String("device", config.DefaultDeviceName, "device name used in messages and mDNS")
	f.Int("pin", config.DefaultSensorPin, "BCM pin number of the leak probe")
	f.Duration("poll", config.DefaultPoll, "GPIO polling interval")
	f.Duration("heartbeat", config.DefaultHeartbeat, "heartbeat interval (0 to disable)")
	f.String("broker", "", "MQTT broker URL (empty disables MQTT)")
	f.String("webhook", "", "chat webhook URL (prefer "+config.EnvWebhookURL+")")
	f.String("http", config.DefaultHTTPAddr, "HTTP status address (empty to disable)")
	f.Bool("mdns", false, "advertise the status page over mDNS")
	f.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	return cmd
}

// applyFlags copies explicitly set flags over cfg and revalidates.
func applyFlags(f *pflag.FlagSet, cfg *config.Config) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}

	set("device", func() (e error) { cfg.DeviceName, e = f.GetString("device"); return })
	set("pin", func() (e error) { cfg.SensorPin, e = f.GetInt("pin"); return })
	set("poll", func() (e error) { cfg.Poll, e = f.GetDuration("poll"); return })
	set("heartbeat", func() (e error) { cfg.Heartbeat, e = f.GetDuration("heartbeat"); return })
	set("broker", func() (e error) { cfg.Broker, e = f.GetString("broker"); return })
	set("webhook", func() (e error) { cfg.WebhookURL, e = f.GetString("webhook"); return })
	set("http", func() (e error) { cfg.HTTPAddr, e = f.GetString("http"); return })
	set("mdns", func() (e error) { cfg.MDNS, e = f.GetBool("mdns"); return })
	set("log-level", func() (e error) { cfg.LogLevel, e = f.GetString("log-level"); return })
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}

	return config.Validate(cfg)
}

func run(parent context.Context, cfg *config.Config, printState bool, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.LogLevel)
	}
	logger.SetLevel(level)
	ctx := logger.WithName(parent, "leak-sensor")

	reader, err := gpio.NewRealReader(cfg.Chip, cfg.SensorPin)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	if printState {
		leak, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Fprintf(out, "sensor: %s\n", sensorString(leak))
		return nil
	}

	indicator, err := gpio.NewRealIndicator(cfg.Chip, cfg.IndicatorPins)
	if err != nil {
		return fmt.Errorf("init indicator: %w", err)
	}
	defer indicator.Close()

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(ctx, cfg.Broker, cfg.ClientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = p
	} else {
		logger.Info(ctx, "no MQTT broker configured, event stream disabled")
	}
	defer publisher.Close()

	var notifier notify.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL)
	} else {
		logger.Warnf(ctx, "no webhook configured, set %s to receive alerts", config.EnvWebhookURL)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Device:          cfg.DeviceName,
		PollMs:          cfg.Poll.Milliseconds(),
		DebounceMs:      logic.StabilityWindow.Milliseconds(),
		AlertIntervalMs: logic.AlertInterval.Milliseconds(),
		HeartbeatMs:     cfg.Heartbeat.Milliseconds(),
		Broker:          cfg.Broker,
		HTTPAddr:        cfg.HTTPAddr,
		Webhook:         cfg.WebhookURL != "",
	})

	l := &loop{
		device:     cfg.DeviceName,
		reader:     reader,
		indicator:  indicator,
		publisher:  publisher,
		mqttStatus: publisher,
		notifier:   notifier,
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat,
		newEpisode: func() string { return uuid.New().String() },
		now:        time.Now,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTPAddr != "" {
		srv := web.New(gctx, cfg.HTTPAddr, tracker)
		g.Go(srv.ListenAndServe)
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})

		if cfg.MDNS {
			advertise(gctx, cfg)
		}
	}

	logger.InfoKV(ctx, "started",
		"device", cfg.DeviceName,
		"pin", cfg.SensorPin,
		"poll", cfg.Poll,
		"window", logic.StabilityWindow,
		"alert_interval", logic.AlertInterval,
		"heartbeat", cfg.Heartbeat,
		"broker", cfg.Broker,
		"http", cfg.HTTPAddr,
	)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g.Go(func() error {
		// Once the loop returns, the HTTP server winds down too.
		defer cancel()
		l.startup(gctx)
		return l.run(gctx, ticker.C, sigCh)
	})

	return g.Wait()
}

// advertise registers the status page over mDNS until ctx ends. Failures are
// logged; the daemon works without discovery.
func advertise(ctx context.Context, cfg *config.Config) {
	port, err := discovery.PortFromAddr(cfg.HTTPAddr)
	if err != nil {
		logger.WarnKV(ctx, "mdns disabled", "error", err)
		return
	}

	adv := discovery.NewAdvertiser()
	if err := adv.Advertise(ctx, discovery.Info{Instance: cfg.DeviceName, Port: port}); err != nil {
		logger.WarnKV(ctx, "mdns disabled", "error", err)
		return
	}
	go func() {
		<-ctx.Done()
		adv.Stop()
	}()
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// NETWORK_STATUS value while the link is up.
const networkConnected = "connected"

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func sensorString(leak bool) string {
	if leak {
		return "LEAK"
	}
	return "DRY"
}
