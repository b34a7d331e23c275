package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/coder/websocket"
)

const (
	// defaultEndpoint is the assistant's chat hub.
	defaultEndpoint = "wss://sydney.bing.com/sydney/ChatHub"

	// recordSeparator terminates every JSON record on the wire.
	recordSeparator = 0x1e

	// maxRecordSize bounds a single websocket frame. Cumulative partial
	// answers grow with the reply, so the limit is well above the default.
	maxRecordSize = 1 * 1024 * 1024
)

// Wire record types. Updates carry cumulative partial answers, the final
// record carries the completed item, and invocations are what we send.
const (
	recordTypeUpdate     = 1
	recordTypeFinal      = 2
	recordTypeInvocation = 4
)

// Source is one attribution on the assistant's final answer.
type Source struct {
	Title string
	URL   string
}

// AssistantClient holds one conversation session with the search assistant.
// Sessions are scoped: construct, ask, Close. The connection is dialed
// lazily on the first ask and released by Close regardless of outcome.
type AssistantClient struct {
	cookies    string
	endpoint   string
	httpClient *http.Client

	conn       *websocket.Conn
	invocation int
}

// ClientOption configures an AssistantClient at construction.
type ClientOption func(*AssistantClient)

// WithEndpoint overrides the websocket endpoint, for tests and self-hosted
// gateways. http/https URLs are accepted and upgraded by the dialer.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *AssistantClient) {
		c.endpoint = endpoint
	}
}

// WithHttpClient sets the HTTP client used for the websocket dial, so proxy
// and transport settings carry over.
func WithHttpClient(httpClient *http.Client) ClientOption {
	return func(c *AssistantClient) {
		c.httpClient = httpClient
	}
}

// NewAssistantClient builds a client authenticated by the given session
// cookie header value.
func NewAssistantClient(cookies string, opts ...ClientOption) *AssistantClient {
	client := &AssistantClient{
		cookies:    cookies,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// connect dials the endpoint and performs the JSON protocol handshake.
// Subsequent calls on a live connection are no-ops.
func (c *AssistantClient) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	headers := make(http.Header)
	if c.cookies != "" {
		headers.Set("Cookie", c.cookies)
	}

	conn, _, err := websocket.Dial(ctx, c.endpoint, &websocket.DialOptions{
		HTTPClient: c.httpClient,
		HTTPHeader: headers,
	})
	if err != nil {
		return fmt.Errorf("dial assistant: %w", err)
	}
	conn.SetReadLimit(maxRecordSize)
	c.conn = conn

	if err := c.send(ctx, map[string]interface{}{"protocol": "json", "version": 1}); err != nil {
		c.Close()
		return fmt.Errorf("protocol handshake: %w", err)
	}

	// The hub acknowledges the handshake with an empty record.
	if _, err := c.readRecords(ctx); err != nil {
		c.Close()
		return fmt.Errorf("protocol handshake: %w", err)
	}
	return nil
}

// Close releases the connection. Safe to call multiple times and on a
// client that never connected.
func (c *AssistantClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	return err
}

// Ask sends one prompt and blocks until the assistant's final answer
// arrives. It returns the answer text and any source attributions.
func (c *AssistantClient) Ask(ctx context.Context, prompt string) (string, []Source, error) {
	if err := c.connect(ctx); err != nil {
		return "", nil, err
	}
	if err := c.sendChat(ctx, prompt); err != nil {
		return "", nil, err
	}

	for {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}

		records, err := c.readRecords(ctx)
		if err != nil {
			return "", nil, err
		}
		for _, record := range records {
			if record.Type != recordTypeFinal {
				continue
			}
			return finalAnswer(record.Item)
		}
	}
}

// AskStream sends one prompt and yields incremental text fragments as the
// assistant generates them. Update records carry the cumulative answer so
// far; the fragment is the suffix beyond what was already yielded. The
// stream ends at the final record, whose result status is still checked.
func (c *AssistantClient) AskStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := c.connect(ctx); err != nil {
			yield("", err)
			return
		}
		if err := c.sendChat(ctx, prompt); err != nil {
			yield("", err)
			return
		}

		previous := ""
		for {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}

			records, err := c.readRecords(ctx)
			if err != nil {
				yield("", err)
				return
			}

			for _, record := range records {
				switch record.Type {
				case recordTypeUpdate:
					text := updateText(record)
					// Snapshots only ever grow; anything else (search
					// progress, rewrites) is skipped.
					if text == "" || !strings.HasPrefix(text, previous) {
						continue
					}
					fragment := text[len(previous):]
					previous = text
					if fragment == "" {
						continue
					}
					if !yield(fragment, nil) {
						return
					}

				case recordTypeFinal:
					if record.Item != nil && record.Item.Result != nil && record.Item.Result.Value != "Success" {
						yield("", resultError(record.Item.Result))
					}
					return
				}
			}
		}
	}
}

// sendChat issues one chat invocation carrying the prompt.
func (c *AssistantClient) sendChat(ctx context.Context, prompt string) error {
	record := wsRecord{
		Type:         recordTypeInvocation,
		InvocationID: strconv.Itoa(c.invocation),
		Target:       "chat",
		Arguments: []wsArgument{{
			Source:           "cib",
			IsStartOfSession: c.invocation == 0,
			Message:          &wsMessage{Author: "user", Text: prompt},
		}},
	}
	c.invocation++

	if err := c.send(ctx, record); err != nil {
		return fmt.Errorf("send chat invocation: %w", err)
	}
	return nil
}

func (c *AssistantClient) send(ctx context.Context, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return c.conn.Write(ctx, websocket.MessageText, append(data, recordSeparator))
}

// readRecords reads one websocket frame and decodes every record in it.
// The hub batches multiple separator-terminated records per frame.
func (c *AssistantClient) readRecords(ctx context.Context) ([]wsRecord, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read assistant record: %w", err)
	}

	var records []wsRecord
	for _, raw := range bytes.Split(data, []byte{recordSeparator}) {
		if len(raw) == 0 {
			continue
		}
		var record wsRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode assistant record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// finalAnswer extracts the answer text and sources from a final item.
func finalAnswer(item *wsItem) (string, []Source, error) {
	if item == nil {
		return "", nil, fmt.Errorf("assistant returned no final item")
	}
	if item.Result != nil && item.Result.Value != "Success" {
		return "", nil, resultError(item.Result)
	}

	var answer *wsMessage
	for i := range item.Messages {
		message := &item.Messages[i]
		// Internal progress messages (search queries and the like) carry a
		// messageType; the answer itself does not.
		if message.Author == "bot" && message.MessageType == "" {
			answer = message
		}
	}
	if answer == nil {
		return "", nil, fmt.Errorf("assistant returned no answer message")
	}

	sources := make([]Source, 0, len(answer.SourceAttributions))
	for _, attribution := range answer.SourceAttributions {
		sources = append(sources, Source{
			Title: attribution.ProviderDisplayName,
			URL:   attribution.SeeMoreURL,
		})
	}

	return messageText(*answer), sources, nil
}

func resultError(result *wsResult) error {
	if result.Message != "" {
		return fmt.Errorf("assistant request failed: %s: %s", result.Value, result.Message)
	}
	return fmt.Errorf("assistant request failed: %s", result.Value)
}

// updateText pulls the cumulative answer text out of an update record.
func updateText(record wsRecord) string {
	for _, argument := range record.Arguments {
		for _, message := range argument.Messages {
			if message.MessageType != "" {
				continue
			}
			if message.Text != "" {
				return message.Text
			}
		}
	}
	return ""
}

// messageText returns the message's plain text, falling back to its first
// adaptive-card body. Card bodies that arrive as HTML are converted to
// Markdown so callers always receive renderable text.
func messageText(message wsMessage) string {
	if message.Text != "" {
		return message.Text
	}
	for _, card := range message.AdaptiveCards {
		for _, body := range card.Body {
			if body.Text == "" {
				continue
			}
			if looksLikeHTML(body.Text) {
				if markdown, err := htmltomarkdown.ConvertString(body.Text); err == nil {
					return strings.TrimSpace(markdown)
				}
			}
			return body.Text
		}
	}
	return ""
}

// looksLikeHTML is a cheap tag check; card bodies are either plain
// text/Markdown or full HTML fragments, never a mix.
func looksLikeHTML(s string) bool {
	return strings.Contains(s, "</") || strings.Contains(s, "/>")
}

// Wire structures. Outgoing invocations use the singular Message field,
// incoming updates and final items use Messages.

type wsRecord struct {
	Type         int          `json:"type"`
	Target       string       `json:"target,omitempty"`
	InvocationID string       `json:"invocationId,omitempty"`
	Arguments    []wsArgument `json:"arguments,omitempty"`
	Item         *wsItem      `json:"item,omitempty"`
}

type wsArgument struct {
	Source           string      `json:"source,omitempty"`
	IsStartOfSession bool        `json:"isStartOfSession,omitempty"`
	Message          *wsMessage  `json:"message,omitempty"`
	Messages         []wsMessage `json:"messages,omitempty"`
}

type wsItem struct {
	Messages []wsMessage `json:"messages,omitempty"`
	Result   *wsResult   `json:"result,omitempty"`
}

type wsResult struct {
	Value   string `json:"value"`
	Message string `json:"message,omitempty"`
}

type wsMessage struct {
	Author             string              `json:"author,omitempty"`
	Text               string              `json:"text,omitempty"`
	MessageType        string              `json:"messageType,omitempty"`
	AdaptiveCards      []adaptiveCard      `json:"adaptiveCards,omitempty"`
	SourceAttributions []sourceAttribution `json:"sourceAttributions,omitempty"`
}

type adaptiveCard struct {
	Body []adaptiveCardBody `json:"body,omitempty"`
}

type adaptiveCardBody struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

type sourceAttribution struct {
	ProviderDisplayName string `json:"providerDisplayName,omitempty"`
	SeeMoreURL          string `json:"seeMoreUrl,omitempty"`
}
