package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Config holds AssemblyAI credentials and polling knobs.
type Config struct {
	APIKey       string `envconfig:"ASSEMBLYAI_API_KEY"`
	BaseURL      string `envconfig:"ASSEMBLYAI_BASE_URL" default:"https://api.assemblyai.com/v2"`
	PollInterval int    `envconfig:"ASSEMBLYAI_POLL_INTERVAL" default:"1"`
	Timeout      int    `envconfig:"ASSEMBLYAI_TIMEOUT" default:"60"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}

// AssemblyAI transcribes audio via the AssemblyAI REST API: upload the bytes,
// create a transcript job, poll until it completes or errors.
type AssemblyAI struct {
	cfg    Config
	client *http.Client
}

func NewAssemblyAI(cfg Config) *AssemblyAI {
	return &AssemblyAI{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Transcribe implements Transcriber.
func (a *AssemblyAI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errx.InvalidInput("audio payload is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.Timeout)*time.Second)
	defer cancel()

	uploadURL, err := a.upload(ctx, audio)
	if err != nil {
		return "", err
	}

	transcriptID, err := a.createTranscript(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	return a.poll(ctx, transcriptID)
}

func (a *AssemblyAI) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.do(req, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	return out.UploadURL, nil
}

func (a *AssemblyAI) createTranscript(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", fmt.Errorf("marshal transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Authorization", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := a.do(req, &out); err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}
	return out.ID, nil
}

func (a *AssemblyAI) poll(ctx context.Context, transcriptID string) (string, error) {
	interval := time.Duration(a.cfg.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("transcription timed out: %w", ctx.Err())
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/transcript/"+transcriptID, nil)
		if err != nil {
			return "", fmt.Errorf("build poll request: %w", err)
		}
		req.Header.Set("Authorization", a.cfg.APIKey)

		var out struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Error  string `json:"error"`
		}
		if err := a.do(req, &out); err != nil {
			return "", fmt.Errorf("poll transcript: %w", err)
		}

		switch out.Status {
		case "completed":
			logx.Debug().Str("transcript_id", transcriptID).Msg("Transcription completed")
			return out.Text, nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", out.Error)
		}
	}
}

func (a *AssemblyAI) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assemblyai returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Transcriber = (*AssemblyAI)(nil)
