package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

func init() {
	// Logger settings
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.JSONFormatter{})
	Logger.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts the global log level from its string name, defaulting to
// info on an unknown name.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)
}

// LogOrderResult logs the outcome of an order submission
func LogOrderResult(orderID string, status string, reason string) {
	Logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
		"reason":   reason,
	}).Info("Order submission result")
}

// LogError logs errors
func LogError(err error) {
	Logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error("Error occurred")
}
