package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterNotificationRoutes 注册通知引擎路由
func (r *Router) RegisterNotificationRoutes(h *NotificationHandler) {
	// 查询
	r.Handle("/notify/api/v1/notifications/recent", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetRecent(w, req)
	})

	r.Handle("/notify/api/v1/notifications/stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetStats(w, req)
	})

	r.Handle("/notify/api/v1/notifications/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportRecent(w, req)
	})

	// case/{caseId}
	r.Handle("/notify/api/v1/notifications/case/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		caseID := strings.TrimPrefix(req.URL.Path, "/notify/api/v1/notifications/case/")
		if caseID == "" || strings.Contains(caseID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetByCase(w, req, caseID)
	})

	// 管理操作
	r.Handle("/notify/api/v1/notifications/trigger", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.TriggerGenerate(w, req)
	})

	r.Handle("/notify/api/v1/notifications/send", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.TriggerSend(w, req)
	})

	r.Handle("/notify/api/v1/notifications/test", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.SendTest(w, req)
	})

	// {alertId}/resend
	r.Handle("/notify/api/v1/notifications/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/notify/api/v1/notifications/")
		if req.Method == http.MethodPost && strings.HasSuffix(rest, "/resend") {
			alertID := strings.TrimSuffix(rest, "/resend")
			if alertID == "" || strings.Contains(alertID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.Resend(w, req, alertID)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	// health
	r.Handle("/notify/api/v1/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}
