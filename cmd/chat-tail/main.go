// chat-tail печатает историю канала и следит за новыми сообщениями по WS.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/chat"
	"github.com/cwrk-planet/kcd-platform/internal/domain"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gookit/color"
)

func main() {
	base := flag.String("addr", "http://localhost:8000", "platform base URL")
	channel := flag.String("channel", "community", "channel to show")
	limit := flag.Int("limit", 50, "history size (1..200)")
	token := flag.String("token", os.Getenv("KCD_TOKEN"), "access token (required for -follow and -send)")
	follow := flag.Bool("follow", false, "keep the socket open and print new messages")
	send := flag.String("send", "", "post one message over the socket and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, *base, *channel, *limit, *token, *follow, *send); err != nil {
		color.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, base, channel string, limit int, token string, follow bool, send string) error {
	history, err := fetchHistory(ctx, base, channel, limit, token)
	if err != nil {
		return err
	}
	renderTable(out, history)

	if !follow && send == "" {
		return nil
	}
	if token == "" {
		return errors.New("-token is required to open a socket")
	}

	c, err := dial(ctx, base, token)
	if err != nil {
		return err
	}
	defer c.CloseNow()

	if send != "" {
		if err := wsjson.Write(ctx, c, chat.Frame{Channel: channel, Content: send}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if !follow {
			// рассылка идёт во все каналы: ждём именно своё сообщение
			rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			for {
				var v chat.MessageView
				if err := wsjson.Read(rctx, c, &v); err != nil {
					return fmt.Errorf("await echo: %w", err)
				}
				if isEcho(v, channel, send) {
					fmt.Fprintln(out, formatLine(v))
					return c.Close(websocket.StatusNormalClosure, "")
				}
			}
		}
	}

	for {
		var v chat.MessageView
		if err := wsjson.Read(ctx, c, &v); err != nil {
			if ctx.Err() != nil {
				return c.Close(websocket.StatusNormalClosure, "")
			}
			if st := websocket.CloseStatus(err); st != -1 {
				return fmt.Errorf("server closed the socket: %d", st)
			}
			return err
		}
		if v.Channel != "" && v.Channel != domain.NormalizeChannel(channel) {
			continue
		}
		fmt.Fprintln(out, formatLine(v))
	}
}

// isEcho: кадр совпадает с отправленным после серверной нормализации
func isEcho(v chat.MessageView, channel, sent string) bool {
	return v.Channel == domain.NormalizeChannel(channel) && v.Content == strings.TrimSpace(sent)
}

func fetchHistory(ctx context.Context, base, channel string, limit int, token string) ([]chat.MessageView, error) {
	q := url.Values{}
	q.Set("channel", channel)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/api/v1/chat/messages?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("history: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out []chat.MessageView
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("history decode: %w", err)
	}
	return out, nil
}

func dial(ctx context.Context, base, token string) (*websocket.Conn, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/api/v1/chat/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, resp, err := websocket.Dial(dctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %s", resp.Status)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	c.SetReadLimit(1 << 20)
	return c, nil
}
