package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/jkowal/recall"
)

// Interface compliance check.
var _ recall.Backend = (*Client)(nil)

// Client implements [recall.Backend] over HTTP with bearer-token auth.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new [Client] with the given API token and options.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    "https://api.recall.app",
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListSessions returns all sessions in server-provided recency order.
func (c *Client) ListSessions(ctx context.Context) ([]recall.Session, error) {
	var dtos []sessionDTO
	if err := c.getJSON(ctx, sessionsPath, &dtos); err != nil {
		return nil, err
	}
	sessions := make([]recall.Session, len(dtos))
	for i, dto := range dtos {
		sessions[i] = toSession(dto)
	}
	return sessions, nil
}

// GetSession returns the full transcript for a session id.
func (c *Client) GetSession(ctx context.Context, id string) (recall.SessionDetail, error) {
	var dto sessionDetailDTO
	if err := c.getJSON(ctx, sessionsPath+"/"+url.PathEscape(id), &dto); err != nil {
		return recall.SessionDetail{}, err
	}
	detail := recall.SessionDetail{Session: toSession(dto.sessionDTO)}
	detail.Messages = make([]recall.Message, len(dto.Messages))
	for i, m := range dto.Messages {
		detail.Messages[i] = toMessage(m)
	}
	return detail, nil
}

// SendText sends a text-only chat message.
func (c *Client) SendText(ctx context.Context, req recall.SendRequest) (recall.SendResponse, error) {
	body, err := json.Marshal(sendDTO{
		Message:         req.Text,
		SessionID:       req.SessionID,
		TZOffsetMinutes: req.TZOffsetMinutes,
	})
	if err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, messagesPath, bytes.NewReader(body))
	if err != nil {
		return recall.SendResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.doSend(httpReq)
}

// SendImage sends a chat message carrying an image payload as a multipart
// request.
func (c *Client) SendImage(ctx context.Context, req recall.SendRequest, img recall.Upload) (recall.SendResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("message", req.Text); err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: %w", err)
	}
	if req.SessionID != "" {
		if err := w.WriteField("session_id", req.SessionID); err != nil {
			return recall.SendResponse{}, fmt.Errorf("api: %w", err)
		}
	}
	if err := w.WriteField("timezone_offset_minutes", strconv.Itoa(req.TZOffsetMinutes)); err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: %w", err)
	}

	part, err := w.CreatePart(imagePartHeader(img))
	if err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: %w", err)
	}
	if _, err := io.Copy(part, img.Reader); err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: copy image: %w", err)
	}
	if err := w.Close(); err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, imagePath, &buf)
	if err != nil {
		return recall.SendResponse{}, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	return c.doSend(httpReq)
}

// GetMemory returns the detail record of an archived memory item.
func (c *Client) GetMemory(ctx context.Context, id string) (recall.Memory, error) {
	var dto memoryDTO
	if err := c.getJSON(ctx, memoriesPath+"/"+url.PathEscape(id), &dto); err != nil {
		return recall.Memory{}, err
	}
	return recall.Memory{
		ID:         dto.ID,
		CapturedAt: dto.CapturedAt,
		Title:      dto.Title,
		MediaType:  dto.MediaType,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("api: %s: %w", path, recall.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func (c *Client) doSend(req *http.Request) (recall.SendResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recall.SendResponse{}, parseHTTPError(resp)
	}

	var dto sendResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return recall.SendResponse{}, fmt.Errorf("api: decode response: %w", err)
	}
	return recall.SendResponse{
		SessionID: dto.SessionID,
		Message:   dto.Message,
		Sources:   toSources(dto.Sources),
	}, nil
}

// imagePartHeader builds the multipart header for the image part, preserving
// the upload's content type (CreateFormFile would force octet-stream).
func imagePartHeader(img recall.Upload) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Name))
	h.Set("Content-Type", img.ContentType)
	return h
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr errorDTO
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == "" {
		return fmt.Errorf("api: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("api: HTTP %d: %s", resp.StatusCode, apiErr.Error)
}
