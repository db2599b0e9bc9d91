package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/solhome/sol-core/internal/infrastructure/config"
)

// defaultBaseURL is the production Gemini REST endpoint.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// maxHistoryTurns caps the per-session conversation memory. Beyond this
// the oldest user/model exchange is dropped; the system prompt at index
// zero is never evicted.
const maxHistoryTurns = 20

// systemPrompt teaches the model the fenced directive grammar. The
// response for a device request must be a single fenced key/value
// segment; anything else is plain conversation.
const systemPrompt = `Your name is Sol. You are a home automation assistant. Handle device control requests as follows:

- **Immediate ON:**
    - "Turn on the LED": ` + "```" + `action:control,device:led,state:ON` + "```" + `
    - "Turn on the LED for [duration] seconds": ` + "```" + `action:control,device:led,state:ON,duration=[duration_seconds]` + "```" + `

- **Immediate OFF:**
    - "Turn off the LED": ` + "```" + `action:control,device:led,state:OFF` + "```" + `

- **Delayed ON:**
    - "Turn on the LED after [delay] seconds": ` + "```" + `action:control,device:led,state:DELAYED_ON,delay=[delay_seconds]` + "```" + `
    - "Turn on the LED after [delay] seconds for [duration] seconds": ` + "```" + `action:control,device:led,state:DELAYED_ON,delay=[delay_seconds],duration=[duration_seconds]` + "```" + `

- **Delayed OFF:**
    - "Turn off the LED after [delay] seconds": ` + "```" + `action:control,device:led,state:DELAYED_OFF,delay=[delay_seconds]` + "```" + `

- **Blinking:**
    - "Blink the LED": ` + "```" + `action:control,device:led,state:BLINK,delay=0.5,times=5,duration=5` + "```" + ` (default values)
    - "Blink the LED [times] times": ` + "```" + `action:control,device:led,state:BLINK,times=[times],delay=0.5,duration=[calculated_duration]` + "```" + `
    - "Blink the LED with a delay of [delay] seconds": ` + "```" + `action:control,device:led,state:BLINK,delay=[delay],times=5,duration=[calculated_duration]` + "```" + `
    - "Blink the LED for [duration] seconds": ` + "```" + `action:control,device:led,state:BLINK,duration=[duration],times=5,delay=[calculated_delay]` + "```" + `

- **Named devices:** when the user targets a specific room or device, add the reference:
    - "Turn on the reading light in the living room": ` + "```" + `action:control,device:light,location:Living Room,name:Reading Light,state:ON` + "```" + `
    - Supported device categories: led, light, fan, security.

For any other request, respond naturally without code blocks. Always include ALL calculated parameters.`

// Client calls the Gemini generateContent endpoint and tracks
// per-session conversation history.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	mu       sync.Mutex
	sessions map[string][]content
}

// NewClient creates a Gemini client from configuration.
func NewClient(cfg config.GeminiConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		sessions:   make(map[string][]content),
	}
}

// Wire types for the generateContent endpoint.

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends prompt to the model within the given session and
// returns the raw response text, fenced directives included.
//
// The session's history is extended with the exchange only on success,
// so a failed call can be retried without polluting the context.
func (c *Client) Generate(ctx context.Context, sessionID, prompt string) (string, error) {
	history := c.history(sessionID)

	contents := make([]content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: prompt}},
	})

	reqBody := request{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:      1,
			TopP:             0.95,
			TopK:             40,
			MaxOutputTokens:  8192,
			ResponseMimeType: "text/plain",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %w", ErrRequestFailed, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, summarise(respBody))
	}

	var result response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	text := result.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	c.appendExchange(sessionID, prompt, text)

	return text, nil
}

// EndSession drops the stored history for a session.
func (c *Client) EndSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

// SessionCount returns the number of sessions currently holding history.
func (c *Client) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// history returns a copy of the session's conversation, seeding a new
// session with the system prompt.
func (c *Client) history(sessionID string) []content {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.sessions[sessionID]
	if !ok {
		h = []content{{
			Role:  "user",
			Parts: []part{{Text: systemPrompt}},
		}}
		c.sessions[sessionID] = h
	}

	out := make([]content, len(h))
	copy(out, h)
	return out
}

// appendExchange records a completed prompt/response pair, evicting the
// oldest exchange past maxHistoryTurns while keeping the system prompt.
func (c *Client) appendExchange(sessionID, prompt, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.sessions[sessionID]
	h = append(h,
		content{Role: "user", Parts: []part{{Text: prompt}}},
		content{Role: "model", Parts: []part{{Text: reply}}},
	)

	if len(h) > 1+maxHistoryTurns*2 {
		trimmed := make([]content, 0, len(h)-2)
		trimmed = append(trimmed, h[0])
		trimmed = append(trimmed, h[3:]...)
		h = trimmed
	}

	c.sessions[sessionID] = h
}

// summarise truncates a response body for error messages.
func summarise(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
