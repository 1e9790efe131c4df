package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by OUTREACH_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("OUTREACH_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// EnvironmentType is "dev" for local runs; anything else is treated as deployed.
func EnvironmentType() string {
	return os.Getenv("ENVIRONMENT_TYPE")
}

func IsDev() bool {
	return EnvironmentType() == "dev"
}

// ServerURLPath is this API's public base URL, used for callbacks outside dev.
func ServerURLPath() string {
	return strings.TrimRight(os.Getenv("SERVER_URL_PATH"), "/")
}

// CallbackBaseURL is the base the AI backend uses to reach us.
func CallbackBaseURL() string {
	if IsDev() {
		return fmt.Sprintf("http://localhost:%d", ServerPort())
	}
	return ServerURLPath()
}

func AIBotServerURL() string {
	return strings.TrimRight(os.Getenv("AI_BOT_SERVER_URL"), "/")
}

func AIBotServerToken() string {
	return os.Getenv("AI_BOT_SERVER_TOKEN")
}

// AIRequestTimeout bounds calls to the AI backend. Defaults to 60s.
func AIRequestTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("AI_REQUEST_TIMEOUT"))
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// AgentTestUserIDs lists users whose agent runs are not output-limited.
func AgentTestUserIDs() []string {
	return splitList(os.Getenv("AGENT_TEST_USER_IDS"))
}

func AgentResourceConfigPrefixPath() string {
	return os.Getenv("AGENT_RESOURCE_CONFIG_PREFIX_PATH")
}

func S3Bucket() string {
	return os.Getenv("S3_BUCKET")
}

func S3Region() string {
	r := os.Getenv("S3_REGION")
	if r == "" {
		return "us-east-1"
	}
	return r
}

func S3Endpoint() string {
	return strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
}

func S3AccessKey() string {
	return os.Getenv("S3_ACCESS_KEY")
}

func S3SecretKey() string {
	return os.Getenv("S3_SECRET_KEY")
}

func S3ForcePathStyle() bool {
	v, err := strconv.ParseBool(os.Getenv("S3_FORCE_PATH_STYLE"))
	return err == nil && v
}

// NATSURL is empty when status broadcast should only be logged.
func NATSURL() string {
	return os.Getenv("NATS_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
