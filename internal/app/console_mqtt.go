package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/orientation"
)

func formatReading(r imu.Reading) string {
	p := orientation.FromReading(r)
	return fmt.Sprintf(
		"[IMU ] ax=%8.3f ay=%8.3f az=%8.3f  gx=%7.3f gy=%7.3f gz=%7.3f  ROLL=%7.2f PITCH=%7.2f YAW=%7.2f",
		r.AccX, r.AccY, r.AccZ, r.GyrX, r.GyrY, r.GyrZ, p.Roll, p.Pitch, p.Yaw,
	)
}

func formatFixed(f imu.Fixed) string {
	return fmt.Sprintf(
		"[FIX ] ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d  r=%6d p=%6d y=%6d",
		f.AccX, f.AccY, f.AccZ, f.GyrX, f.GyrY, f.GyrZ, f.Roll, f.Pitch, f.Yaw,
	)
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDConsole, "console"))
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}

	if err := subscribeJSON(client, cfg.TopicReading, func(r imu.Reading) {
		fmt.Println(formatReading(r))
	}); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	if err := subscribeJSON(client, cfg.TopicFixed, func(f imu.Fixed) {
		fmt.Println(formatFixed(f))
	}); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	if err := subscribeJSON(client, cfg.TopicStats, func(s LinkStats) {
		fmt.Printf("[STAT] %s\n", s)
	}); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	glog.Info("console: shutting down")
	client.Disconnect(250)
	return nil
}
