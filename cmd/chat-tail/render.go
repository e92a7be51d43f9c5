package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/chat"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func renderTable(w io.Writer, msgs []chat.MessageView) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Time", "Author", "Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range msgs {
		table.Append([]string{
			strconv.FormatInt(m.ID, 10),
			m.CreatedAt.Local().Format(time.DateTime),
			m.UserName,
			m.Content,
		})
	}
	table.Render()
}

// formatLine: одна строка live-режима: время серым, автор зелёным
func formatLine(m chat.MessageView) string {
	ts := color.FgGray.Render(m.CreatedAt.Local().Format(time.TimeOnly))
	author := color.New(color.FgGreen, color.OpBold).Render(m.UserName)
	return fmt.Sprintf("%s %s: %s", ts, author, m.Content)
}
