// The worker is the trusted backend caller the internal credential tier
// exists for: it polls the registry and reports synthetic SLA incidents.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/certlayer/certlayer/config"
	"github.com/certlayer/certlayer/core"
	transport "github.com/certlayer/certlayer/transport/http"
)

const incidentProbability = 0.15

func main() {
	cfg := config.LoadWorker()
	client := &http.Client{Timeout: 30 * time.Second}

	log.Printf("%s started interval=%s api=%s", cfg.Name, cfg.Interval, cfg.APIBaseURL)

	tick(client, cfg)
	for range time.Tick(cfg.Interval) {
		tick(client, cfg)
	}
}

func tick(client *http.Client, cfg config.WorkerConfig) {
	now := time.Now().UTC().Format(time.RFC3339)

	protocols, err := listProtocols(client, cfg)
	if err != nil {
		log.Printf("%s tick=%s error=%v", cfg.Name, now, err)
		return
	}

	for _, protocol := range protocols {
		if rand.Float64() >= incidentProbability {
			continue
		}
		summary := fmt.Sprintf("Automated monitoring detected SLA anomaly at %s", now)
		if err := postIncident(client, cfg, protocol.ID, summary); err != nil {
			log.Printf("%s tick=%s error=%v", cfg.Name, now, err)
		}
	}

	log.Printf("%s tick=%s protocols=%d", cfg.Name, now, len(protocols))
}

func listProtocols(client *http.Client, cfg config.WorkerConfig) ([]core.Protocol, error) {
	req, err := http.NewRequest(http.MethodGet, cfg.APIBaseURL+"/v1/protocols", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(transport.InternalKeyHeader, cfg.InternalAPIKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Items []core.Protocol `json:"items"`
		Error string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list protocols: %s (HTTP %d)", body.Error, resp.StatusCode)
	}
	return body.Items, nil
}

func postIncident(client *http.Client, cfg config.WorkerConfig, protocolID, summary string) error {
	payload, err := json.Marshal(map[string]string{
		"protocolId": protocolID,
		"severity":   "medium",
		"summary":    summary,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/v1/incidents", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(transport.InternalKeyHeader, cfg.InternalAPIKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("post incident: %s (HTTP %d)", body.Error, resp.StatusCode)
	}
	return nil
}
