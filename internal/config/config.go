package config

import (
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// UploadConfig describes the local upload sandbox the extraction engine is
// allowed to read from. ContainerRoot is the absolute prefix under which the
// upload directory lives inside the container; absolute document paths outside
// it are never trusted.
type UploadConfig struct {
	Dir           string
	ContainerRoot string
}

// OCRConfig holds the tuning knobs of the extraction cascade.
type OCRConfig struct {
	// Language is the tesseract trained-data language (e.g. "deu", "eng").
	Language string
	// DPI used when rasterizing pages for OCR.
	DPI int
	// MinNativeChars is the minimum native text length before the document is
	// treated as scanned and the pipeline falls through to OCR.
	MinNativeChars int
	// MinPageChars is the minimum per-page OCR output length before the page
	// escalates to the vision fallback.
	MinPageChars int
	// SampleThreshold is the page count above which pages are sampled.
	SampleThreshold int
	// SampleStep selects the first page plus every SampleStep-th page.
	SampleStep int
}

// InferenceConfig holds settings for the remote multimodal inference endpoint.
// The API key and model are deliberately absent: they live in the settings
// store and are resolved per request by the service layer.
type InferenceConfig struct {
	BaseURL    string
	TimeoutSec int
	MaxTokens  int
}

// VerificationConfig holds signature verification policy.
type VerificationConfig struct {
	// OCSPResponderURL may be empty; the OCSP check is then skipped and
	// reported as a warning in the verdict.
	OCSPResponderURL string
	TrustedIssuers   []string
	// AllowedAlgorithms defaults to RSA with SHA-256/384/512.
	AllowedAlgorithms []string
	TimeoutSec        int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost      string
	Port         string
	Database     DatabaseConfig
	MinIO        MinIOConfig
	Upload       UploadConfig
	OCR          OCRConfig
	Inference    InferenceConfig
	Verification VerificationConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "/app/uploads"),
			ContainerRoot: getEnv("CONTAINER_ROOT", "/app"),
		},
		OCR: OCRConfig{
			Language:        getEnv("OCR_LANGUAGE", "deu"),
			DPI:             getEnvInt("OCR_DPI", 150),
			MinNativeChars:  getEnvInt("OCR_MIN_NATIVE_CHARS", 50),
			MinPageChars:    getEnvInt("OCR_MIN_PAGE_CHARS", 20),
			SampleThreshold: getEnvInt("OCR_SAMPLE_THRESHOLD", 10),
			SampleStep:      getEnvInt("OCR_SAMPLE_STEP", 5),
		},
		Inference: InferenceConfig{
			BaseURL:    getEnv("INFERENCE_BASE_URL", "https://api.openai.com/v1"),
			TimeoutSec: getEnvInt("INFERENCE_TIMEOUT_SEC", 60),
			MaxTokens:  getEnvInt("INFERENCE_MAX_TOKENS", 4096),
		},
		Verification: VerificationConfig{
			OCSPResponderURL:  getEnv("OCSP_RESPONDER_URL", ""),
			TrustedIssuers:    getEnvList("TRUSTED_ISSUERS", nil),
			AllowedAlgorithms: getEnvList("ALLOWED_SIGNATURE_ALGORITHMS", []string{"SHA256withRSA", "SHA384withRSA", "SHA512withRSA"}),
			TimeoutSec:        getEnvInt("VERIFICATION_TIMEOUT_SEC", 10),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
