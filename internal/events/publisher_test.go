package events

import (
	"context"
	"encoding/json"
	"testing"

	"ai-batch-transcription-service/internal/models"
)

func TestNew_NilConfigDisabled(t *testing.T) {
	p := New(nil)
	if p.enabled {
		t.Error("nil config produced an enabled publisher")
	}
	if p.writer != nil {
		t.Error("nil config produced a writer")
	}
}

func TestNew_DisabledConfig(t *testing.T) {
	p := New(&Config{
		Enabled:   false,
		Brokers:   []string{"broker:9092"},
		Topic:     "transcription.results",
		Principal: "svc-batch-transcription",
	})
	if p.enabled {
		t.Error("disabled config produced an enabled publisher")
	}
	if p.topic != "transcription.results" || p.principal != "svc-batch-transcription" {
		t.Errorf("config values not carried: topic=%q principal=%q", p.topic, p.principal)
	}
}

func TestNew_EnabledWithoutBrokersDisabled(t *testing.T) {
	p := New(&Config{Enabled: true, Topic: "transcription.results"})
	if p.enabled {
		t.Error("publisher enabled with no brokers")
	}
}

func TestPublishResult_LogOnlyMode(t *testing.T) {
	p := New(nil)
	ev := ResultEvent{
		EventType: EventTypeResult,
		JobID:     "job-1",
		Index:     0,
		Timestamp: 1724500000,
		Transcription: models.Transcription{
			Language: "en",
			Emotion:  "NEUTRAL",
			Event:    "Speech",
			Textnorm: "woitn",
			Text:     "hello world",
		},
	}
	if err := p.PublishResult(context.Background(), ev); err != nil {
		t.Fatalf("PublishResult in log-only mode: %v", err)
	}
}

func TestClose_NoWriter(t *testing.T) {
	if err := New(nil).Close(); err != nil {
		t.Fatalf("Close without writer: %v", err)
	}
}

func TestResultEvent_JSON(t *testing.T) {
	ev := ResultEvent{
		EventType: EventTypeResult,
		JobID:     "job-1",
		Index:     2,
		Timestamp: 1724500000,
		Transcription: models.Transcription{
			Language: "en",
			Text:     "hello",
		},
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["eventType"] != "transcription.result" {
		t.Errorf("eventType = %v", decoded["eventType"])
	}
	if decoded["jobId"] != "job-1" {
		t.Errorf("jobId = %v", decoded["jobId"])
	}
	if decoded["index"] != float64(2) {
		t.Errorf("index = %v", decoded["index"])
	}
	tr, ok := decoded["transcription"].(map[string]any)
	if !ok || tr["text"] != "hello" {
		t.Errorf("transcription = %v", decoded["transcription"])
	}
}
