package middleware

import (
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// RequestID 為每個擬合請求配發 request id（chi 格式：host/隨機前綴-序號）。
// 一次 POST /v1/fit 就是一次完整擬合，事後在 access log 追單一請求靠這個 id。
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(next)
}

// GetReqId 取出完整 request id。
func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}

// GetReqIdNumPart 只取序號段，給不想帶主機名前綴的輸出用。
func GetReqIdNumPart(r *http.Request) string {
	str := chimid.GetReqID(r.Context())
	if len(str) == 0 {
		return ""
	}
	i := strings.LastIndex(str, "-")
	if i < 0 || i+1 >= len(str) {
		return str
	}
	return str[i+1:]
}
