package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/chat"

	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []chat.MessageView{
		{ID: 1, UserName: "Ann", Content: "hello", CreatedAt: time.Now()},
		{ID: 2, UserName: "bob@example.com", Content: "hi ann", CreatedAt: time.Now()},
	})

	out := buf.String()
	require.Contains(t, out, "AUTHOR")
	require.Contains(t, out, "hello")
	require.Contains(t, out, "bob@example.com")
	require.Less(t, strings.Index(out, "hello"), strings.Index(out, "hi ann"))
}

func TestFormatLine(t *testing.T) {
	color.Enable = false
	defer func() { color.Enable = true }()

	line := formatLine(chat.MessageView{UserName: "Ann", Content: "hey", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)})
	require.Equal(t, "03:04:05 Ann: hey", line)
}

func TestIsEcho(t *testing.T) {
	mine := chat.MessageView{ID: 9, UserName: "Ann", Channel: "community", Content: "ping"}

	require.True(t, isEcho(mine, "community", "  ping "))
	require.True(t, isEcho(mine, "", "ping"))
	require.False(t, isEcho(chat.MessageView{Channel: "random", Content: "ping"}, "community", "ping"))
	require.False(t, isEcho(chat.MessageView{Channel: "community", Content: "someone else"}, "community", "ping"))
}
