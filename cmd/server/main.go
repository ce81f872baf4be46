package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"ai-vetting/backend/internal/api"
)

func main() {
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			logrus.SetLevel(parsed)
		} else {
			logrus.WithError(err).Warn("ignoring LOG_LEVEL")
		}
	}

	var origins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	cfg := api.Config{
		DBName:         "ai-vetting",
		SilentDB:       !strings.EqualFold(strings.TrimSpace(os.Getenv("DEBUG_SQL")), "true"),
		AllowedOrigins: origins,
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.WithField("origins", origins).Infof("starting ai-vetting backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
