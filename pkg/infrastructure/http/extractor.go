package http

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// TextBounds bounds the accepted homepage text, in characters
type TextBounds struct {
	Min int
	Max int
}

// Validate checks 0 < Min <= Max
func (b TextBounds) Validate() error {
	if b.Min <= 0 || b.Max < b.Min {
		return fmt.Errorf("text bounds: need 0 < min <= max, got min=%d max=%d", b.Min, b.Max)
	}
	return nil
}

// TextExtractor implements service.TextExtractor
type TextExtractor struct {
	client *Client
	bounds TextBounds
	log    *zap.Logger
}

// NewTextExtractor creates an extractor on top of a shared client
func NewTextExtractor(client *Client, bounds TextBounds, logger *zap.Logger) (*TextExtractor, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextExtractor{client: client, bounds: bounds, log: logger.Named("extract")}, nil
}

// Extract implements service.TextExtractor
func (e *TextExtractor) Extract(ctx context.Context, rawURL string) (entity.Outcome[entity.Text], error) {
	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		e.log.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return entity.NotOk[entity.Text](), nil
	}

	text, ok := Bound(body, e.bounds)
	if !ok {
		e.log.Debug("text too short", zap.String("url", rawURL), zap.Int("chars", utf8.RuneCountInString(body)))
		return entity.NotOk[entity.Text](), nil
	}
	return entity.Ok(entity.Text{Body: text}), nil
}

func (e *TextExtractor) fetch(ctx context.Context, rawURL string) (string, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return "", err
	}

	resp, cancel, err := e.client.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, e.client.MaxResponseSize())
	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return VisibleText(reader)
}

// VisibleText parses an HTML document and returns its visible text with
// whitespace runs collapsed to single spaces
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " "), nil
}

// Bound applies the length policy: texts shorter than Min are rejected,
// longer ones are cut to Max characters
func Bound(text string, bounds TextBounds) (string, bool) {
	n := utf8.RuneCountInString(text)
	if n < bounds.Min {
		return "", false
	}
	if n <= bounds.Max {
		return text, true
	}
	runes := []rune(text)
	return string(runes[:bounds.Max]), true
}

// hostOf returns the host part of a URL without port or brackets
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
