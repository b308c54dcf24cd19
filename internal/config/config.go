package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/regchunk/internal/chunker"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Source document loaded at startup
	DocumentPath string
	DocumentID   string

	// Chunking
	ChunkSize    int
	ChunkOverlap int
	Separators   []string

	// Table of contents handling
	TOCBodyMarker string
	TOCStartInTOC bool

	// Embeddings
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingBatchSize int

	// Qdrant
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	// Catalog
	DBPath string

	SearchK int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// DefaultTOCBodyMarker is the heading that opens the regulation body in the
// HIPAA administrative simplification compilation.
const DefaultTOCBodyMarker = "HIPAA Administrative Simplification Regulation Text"

// Load reads a .env file from the working directory when one exists, then
// the environment. Variables already set win over .env values.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("REGCHUNK_API_KEY"),

		DocumentPath: os.Getenv("DOCUMENT_PATH"),
		DocumentID:   os.Getenv("DOCUMENT_ID"),

		ChunkSize:    envInt("CHUNK_SIZE", 1200),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 200),
		Separators:   envSeparators("CHUNK_SEPARATORS", chunker.DefaultSeparators),

		TOCBodyMarker: envOr("TOC_BODY_MARKER", DefaultTOCBodyMarker),
		TOCStartInTOC: envBool("TOC_START_IN_TOC", false),

		EmbeddingBaseURL:   envOr("EMBEDDING_BASE_URL", "http://localhost:11434"),
		EmbeddingModel:     envOr("EMBEDDING_MODEL", "mxbai-embed-large"),
		EmbeddingBatchSize: envInt("EMBEDDING_BATCH_SIZE", 32),

		QdrantURL:        envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "regulation_chunks"),
		QdrantVectorSize: envInt("QDRANT_VECTOR_SIZE", 1024),

		DBPath: envOr("DB_PATH", "./data/regchunk.db"),

		SearchK: envInt("SEARCH_K", 10),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 32
	}
	if cfg.SearchK <= 0 {
		cfg.SearchK = 10
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Chunking returns the splitter settings.
func (c Config) Chunking() chunker.Config {
	return chunker.Config{
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
		Separators:   c.Separators,
	}
}

// Validate checks the settings every entry point needs.
func (c Config) Validate() error {
	if err := c.Chunking().Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if c.TOCStartInTOC && c.TOCBodyMarker == "" {
		return fmt.Errorf("TOC_BODY_MARKER is required when TOC_START_IN_TOC is set")
	}
	if c.QdrantVectorSize <= 0 {
		return fmt.Errorf("QDRANT_VECTOR_SIZE must be positive, got %d", c.QdrantVectorSize)
	}
	if c.QdrantCollection == "" {
		return fmt.Errorf("QDRANT_COLLECTION is required")
	}
	return nil
}

// ValidateServer additionally requires the API key.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("REGCHUNK_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envSeparators reads a comma separated list with Go escapes, e.g. `\n\n,\n,. `.
// Any item that fails to unescape discards the whole value.
func envSeparators(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	seps, err := ParseSeparators(v)
	if err != nil {
		return append([]string(nil), fallback...)
	}
	return seps
}

// ParseSeparators unescapes a comma separated separator list.
func ParseSeparators(v string) ([]string, error) {
	var seps []string
	for item := range strings.SplitSeq(v, ",") {
		s, err := strconv.Unquote(`"` + item + `"`)
		if err != nil {
			return nil, fmt.Errorf("separator %q: %w", item, err)
		}
		if s == "" {
			return nil, fmt.Errorf("empty separator in %q", v)
		}
		seps = append(seps, s)
	}
	return seps, nil
}
