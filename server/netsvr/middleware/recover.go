package middleware

import (
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// Recover 把 handler 的 panic 轉成 500 回應，不讓單一請求帶掉整個服務。
// 擬合管線的線性代數層（gonum mat）對維度不合是用 panic 回報的，
// 這裡是它的最後一道接網。
func Recover(next http.Handler) http.Handler {
	return chimid.Recoverer(next)
}
