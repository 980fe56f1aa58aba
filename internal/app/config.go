package app

import (
	"time"

	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
	"github.com/meshvault/meshvault-backend/internal/utils"
)

type Config struct {
	Port          string
	BucketName    string
	CDNDomain     string
	ViewerBaseURL string

	ChromeCDPURL   string
	ChromePath     string
	ChromeHeadless bool

	RenderWaitCeiling time.Duration
	RenderSessionTTL  time.Duration
	RenderQueueSize   int
	RenderConcurrency int
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	bucketName := utils.GetEnv("GCP_BUCKET_NAME", "", log)
	cdnDomain := utils.GetEnv("GCP_BUCKET_CDN_DOMAIN", "", log)
	viewerBaseURL := utils.GetEnv("VIEWER_BASE_URL", "http://localhost:8080/view", log)
	chromeCDPURL := utils.GetEnv("CHROME_CDP_URL", "", log)
	chromePath := utils.GetEnv("CHROME_PATH", "", log)
	chromeHeadless := utils.GetEnvAsBool("CHROME_HEADLESS", true, log)
	waitCeilingSeconds := utils.GetEnvAsInt("RENDER_WAIT_CEILING", 60, log)
	sessionTTLSeconds := utils.GetEnvAsInt("RENDER_SESSION_TTL", 300, log)
	queueSize := utils.GetEnvAsInt("RENDER_QUEUE_SIZE", 64, log)
	concurrency := utils.GetEnvAsInt("RENDER_CONCURRENCY", 2, log)

	return Config{
		Port:              port,
		BucketName:        bucketName,
		CDNDomain:         cdnDomain,
		ViewerBaseURL:     viewerBaseURL,
		ChromeCDPURL:      chromeCDPURL,
		ChromePath:        chromePath,
		ChromeHeadless:    chromeHeadless,
		RenderWaitCeiling: time.Duration(waitCeilingSeconds) * time.Second,
		RenderSessionTTL:  time.Duration(sessionTTLSeconds) * time.Second,
		RenderQueueSize:   queueSize,
		RenderConcurrency: concurrency,
	}
}
