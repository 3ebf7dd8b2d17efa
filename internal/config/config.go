package config

import (
	"os"
	"strconv"
)

// Settings holds the full application configuration, read once at startup
// from the environment (optionally seeded from a .env file by the caller).
type Settings struct {
	// HTTP surface
	Host    string
	Port    string
	APIKeys string // comma-separated allowlist, empty disables auth

	// Milvus
	MilvusAddr string
	IndexName  string

	// Embeddings
	EmbedProvider string // "local" | "hf" | "openai"
	EmbedModel    string
	LocalEmbedURL string // TEI-style local inference server

	// LLM
	LLMProvider    string // "local" | "hf" | "openai"
	HFAPIKey       string
	HFModel        string
	HFAPIURL       string
	OpenAIAPIKey   string
	OpenAIModel    string
	LocalLLMURL    string
	CrossEncoder   string // cross-encoder model id for reranking
	CiteByFilename bool

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Storage
	UploadDir    string
	FeedbackPath string

	Debug bool
}

// Load reads settings from the environment, applying defaults.
func Load() *Settings {
	return &Settings{
		Host:    getEnvWithDefault("HOST", "0.0.0.0"),
		Port:    getEnvWithDefault("PORT", "8000"),
		APIKeys: os.Getenv("API_KEYS"),

		MilvusAddr: getEnvWithDefault("MILVUS_ADDR", "localhost:19530"),
		IndexName:  getEnvWithDefault("INDEX_NAME", "crm_rag_index"),

		EmbedProvider: getEnvWithDefault("EMB_PROVIDER", "local"),
		EmbedModel:    getEnvWithDefault("EMB_MODEL", "intfloat/multilingual-e5-base"),
		LocalEmbedURL: getEnvWithDefault("LOCAL_EMBED_URL", "http://localhost:8080"),

		LLMProvider:    getEnvWithDefault("LLM_PROVIDER", "hf"),
		HFAPIKey:       os.Getenv("HF_INFERENCE_API_KEY"),
		HFModel:        os.Getenv("HF_MODEL"),
		HFAPIURL:       os.Getenv("HF_API_URL"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
		LocalLLMURL:    getEnvWithDefault("LOCAL_LLM_URL", "http://localhost:8081"),
		CrossEncoder:   getEnvWithDefault("CROSS_ENCODER_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
		CiteByFilename: getEnvBool("CITE_BY_FILENAME", true),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),

		UploadDir:    getEnvWithDefault("UPLOAD_DIR", "storages/uploads"),
		FeedbackPath: getEnvWithDefault("FEEDBACK_PATH", "storages/feedback_log.json"),

		Debug: getEnvBool("DEBUG", false),
	}
}

// getEnvWithDefault gets an environment variable or returns a default value.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
