package trace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
	}
}

// Formatter renders events. Start, when set, makes text timestamps relative.
type Formatter struct {
	Format Format
	Color  bool
	Start  time.Time

	open, ok, failed, errc, faint *color.Color
}

// NewFormatter prepares a formatter; colours are only applied to text output.
func NewFormatter(format Format, colored bool, start time.Time) *Formatter {
	f := &Formatter{Format: format, Color: colored, Start: start}
	f.open = color.New(color.FgCyan)
	f.ok = color.New(color.FgGreen)
	f.failed = color.New(color.FgRed)
	f.errc = color.New(color.FgRed, color.Bold)
	f.faint = color.New(color.Faint)
	for _, c := range []*color.Color{f.open, f.ok, f.failed, f.errc, f.faint} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// FormatEvent formats an event without colour or relative timestamps.
func FormatEvent(ev *Event, format Format) []byte {
	return NewFormatter(format, false, time.Time{}).Bytes(ev)
}

// Bytes formats one event, newline terminated.
func (f *Formatter) Bytes(ev *Event) []byte {
	if f.Format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return f.text(ev)
}

func formatNDJSON(ev *Event) []byte {
	type jsonEvent struct {
		Time     string            `json:"time"`
		Seq      uint64            `json:"seq"`
		Kind     string            `json:"kind"`
		Depth    int               `json:"depth"`
		SpanID   uint64            `json:"span_id"`
		ParentID uint64            `json:"parent_id,omitempty"`
		GID      uint64            `json:"gid,omitempty"`
		Name     string            `json:"name"`
		Detail   string            `json:"detail,omitempty"`
		Extra    map[string]string `json:"extra,omitempty"`
	}

	j := jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Depth:    ev.Depth,
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	}

	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

// text: [timestamp] [indent]→/←/• name (detail) {k=v}
func (f *Formatter) text(ev *Event) []byte {
	var sb strings.Builder

	if f.Start.IsZero() {
		sb.WriteString(f.faint.Sprint("[" + ev.Time.Format("15:04:05.000") + "] "))
	} else {
		ms := float64(ev.Time.Sub(f.Start).Microseconds()) / 1000
		sb.WriteString(f.faint.Sprintf("[%9.3fms] ", ms))
	}
	sb.WriteString(strings.Repeat("  ", max(ev.Depth, 0)))

	switch ev.Kind {
	case KindOpen:
		sb.WriteString(f.open.Sprint("\u2192 " + ev.Name)) // →
	case KindClose:
		sb.WriteString("\u2190 " + ev.Name) // ←
	case KindInfo:
		sb.WriteString("\u2022 " + ev.Name) // •
	case KindDebug:
		sb.WriteString(f.faint.Sprint("\u00b7 " + ev.Name)) // ·
	case KindError:
		sb.WriteString(f.errc.Sprint("\u2717 " + ev.Name)) // ✗
	}

	if ev.Detail != "" {
		detail := ev.Detail
		switch detail {
		case "Success":
			detail = f.ok.Sprint(detail)
		case "Failed":
			detail = f.failed.Sprint(detail)
		}
		sb.WriteString(" (" + detail + ")")
	}

	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + "=" + ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
