package handler

import (
	"net/http"

	"github.com/initify/issue-notifier/internal/app"
)

// Handler is the Vercel function for /api/webhook and /api/healthz. Each
// request reads SLACK_URL and the other settings from the environment and
// forwards issue deliveries to Slack.
func Handler(w http.ResponseWriter, r *http.Request) {
	router, err := app.RouterFromEnv()
	if err != nil {
		http.Error(w, "config error", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
