package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// parseTime 解析查询参数中的时间：RFC3339 或 epoch 毫秒
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if millis, err := strconv.ParseInt(s, 10, 64); err == nil && millis > 0 {
		t := time.UnixMilli(millis)
		return &t
	}
	return nil
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
