package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
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

// tenantIDFromReq 解析请求租户：查询参数优先，回落到网关注入的头
func tenantIDFromReq(r *http.Request) string {
	if tid := r.URL.Query().Get("tenantId"); tid != "" && tid != "null" {
		return tid
	}
	if tid := r.Header.Get("X-Tenant-Id"); tid != "" && tid != "null" {
		return tid
	}
	return ""
}

// isPrivileged 管理操作权限检查（触发扫描/发送/重发）
func isPrivileged(r *http.Request) bool {
	role := r.Header.Get("X-User-Role")
	return role == "Admin" || role == "SystemAdmin"
}
