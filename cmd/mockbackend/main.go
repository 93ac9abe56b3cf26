package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"model-emulator/internal/model"
	"model-emulator/internal/tokenizer"
)

var (
	port    int
	latency time.Duration
	noUsage bool
	reply   string
)

func main() {
	flag.IntVar(&port, "port", 9999, "listen port")
	flag.DurationVar(&latency, "latency", 50*time.Millisecond, "simulated latency")
	flag.BoolVar(&noUsage, "no-usage", false, "omit the usage block so the relay has to estimate tokens")
	flag.StringVar(&reply, "reply", "This is a mock response from the backend.", "canned completion text")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChat)
	mux.HandleFunc("GET /health", handleHealth)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("mock-backend listening on %s (latency=%v no-usage=%v)", addr, latency, noUsage)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req model.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	reqModel := req.Model
	if reqModel == "" {
		reqModel = "gpt-4o-mini"
	}

	time.Sleep(latency)

	resp := model.ChatResponse{
		ID:      "mock-completion-001",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   reqModel,
		Choices: []model.Choice{
			{
				Index:        0,
				Message:      model.NewMessage("assistant", reply),
				FinishReason: "stop",
			},
		},
	}
	if !noUsage {
		prompt := 0
		for _, m := range req.Messages {
			prompt += tokenizer.Estimate(m.Text())
		}
		completion := tokenizer.Estimate(reply)
		resp.Usage = model.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
