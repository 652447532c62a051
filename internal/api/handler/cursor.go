package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/history"
)

// DecodeHistoryCursor parses a cursor produced by EncodeHistoryCursor. An
// empty string means the first page.
func DecodeHistoryCursor(cursorStr string) (*history.Cursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var finishedAt int64
	if _, err := fmt.Sscanf(parts[0], "%d", &finishedAt); err != nil {
		return nil, fmt.Errorf("invalid finishedAt in cursor: %w", err)
	}

	return &history.Cursor{
		FinishedAt: time.Unix(0, finishedAt).UTC(),
		JobID:      parts[1],
	}, nil
}

func EncodeHistoryCursor(cursor *history.Cursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.FinishedAt.UnixNano(), cursor.JobID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
