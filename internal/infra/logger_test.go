package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "debug", "json")
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
	log.WithField("booking_id", "b1").Info("booking created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if entry["booking_id"] != "b1" || entry["msg"] != "booking created" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewLogger_BadLevelFallsBack(t *testing.T) {
	log := newLogger(&bytes.Buffer{}, "loud", "text")
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
}
