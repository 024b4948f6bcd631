package config

import "github.com/kelseyhightower/envconfig"

// BridgeConfig configures the desktop-facing API process.
type BridgeConfig struct {
	DBPath    string `envconfig:"DB_PATH" default:"whatsapp.db"`
	Port      string `envconfig:"PORT" default:"8081"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// WooCommerce order feed
	WCBaseURL        string `envconfig:"WC_BASE_URL" required:"true"`
	WCConsumerKey    string `envconfig:"WC_CONSUMER_KEY" required:"true"`
	WCConsumerSecret string `envconfig:"WC_CONSUMER_SECRET" required:"true"`
	WCPageSize       int    `envconfig:"WC_PAGE_SIZE" default:"30"`

	// Background order resync schedule (cron spec).
	SyncSchedule string `envconfig:"SYNC_SCHEDULE" default:"@every 5m"`

	// WhatsApp Cloud API
	WAAccessToken   string  `envconfig:"WA_ACCESS_TOKEN"`
	WAPhoneID       string  `envconfig:"WA_PHONE_ID"`
	WABaseURL       string  `envconfig:"WA_BASE_URL" default:"https://graph.facebook.com"`
	WAAPIVersion    string  `envconfig:"WA_API_VERSION" default:"v18.0"`
	WARetryAttempts int     `envconfig:"WA_RETRY_ATTEMPTS" default:"3"`
	WASendRPS       float64 `envconfig:"WA_SEND_RPS" default:"5"`
	WASendBurst     int     `envconfig:"WA_SEND_BURST" default:"10"`
}

// WebhookConfig configures the always-on webhook listener.
type WebhookConfig struct {
	DBPath      string `envconfig:"DB_PATH" default:"whatsapp.db"`
	Port        string `envconfig:"PORT" default:"10000"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Pre-shared secret echoed back during the subscription handshake.
	VerifyToken string `envconfig:"WA_VERIFY_TOKEN" required:"true"`
}

func LoadBridge() BridgeConfig {
	var cfg BridgeConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadWebhook() WebhookConfig {
	var cfg WebhookConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
