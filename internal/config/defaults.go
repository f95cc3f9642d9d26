package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.QdrantAddr == "" {
		cfg.Storage.QdrantAddr = "localhost:6334"
	}
	if cfg.Storage.HistoryDBPath == "" {
		cfg.Storage.HistoryDBPath = "/usr/local/var/ragchat/data/history.db"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Embedding.PrimaryModel == "" {
		cfg.Embedding.PrimaryModel = "text-embedding-004"
	}
	if cfg.Embedding.FallbackModel == "" {
		cfg.Embedding.FallbackModel = "embedding-001"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemini-2.0-flash-exp"
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 60
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 2000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 200
	}
	if cfg.Retrieval.MaxChunks == 0 {
		cfg.Retrieval.MaxChunks = 500
	}
	if cfg.Retrieval.IngestMaxChunks == 0 {
		cfg.Retrieval.IngestMaxChunks = 200
	}
	if cfg.Retrieval.MinChunkLength == 0 {
		cfg.Retrieval.MinChunkLength = 100
	}
	if cfg.Retrieval.MaxTextLength == 0 {
		cfg.Retrieval.MaxTextLength = 500000
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ChatTopK == 0 {
		cfg.Retrieval.ChatTopK = 3
	}
	if cfg.Retrieval.BatchSize == 0 {
		cfg.Retrieval.BatchSize = 10
	}
	if cfg.Retrieval.BatchPause == 0 {
		cfg.Retrieval.BatchPause = 100
	}
	if cfg.Retrieval.HighPriorityTerms == nil {
		cfg.Retrieval.HighPriorityTerms = []string{"zippy"}
	}
	if cfg.Retrieval.SpecificTerms == nil {
		cfg.Retrieval.SpecificTerms = []string{"zippy", "tool", "automation", "machine learning", "diagrams"}
	}
	if cfg.Retrieval.KeywordTriggerBelow == 0 {
		cfg.Retrieval.KeywordTriggerBelow = 2
	}
	if cfg.Intent.NECKeywords == nil {
		cfg.Intent.NECKeywords = []string{
			"nec", "electrical code", "electrical standard", "wiring", "circuit",
			"voltage", "amperage", "grounding", "electrical safety",
		}
	}
	if cfg.Intent.WattmonkKeywords == nil {
		cfg.Intent.WattmonkKeywords = []string{
			"wattmonk", "company", "service", "solar design", "permitting", "zippy",
			"site survey", "solar", "engineering", "platform", "tool", "automation",
		}
	}
	if cfg.Intent.NECAnchors == nil {
		cfg.Intent.NECAnchors = []string{"nec", "electrical"}
	}
	if cfg.Intent.WattmonkAnchors == nil {
		cfg.Intent.WattmonkAnchors = []string{"wattmonk", "company"}
	}
	if cfg.Documents.Extensions == nil {
		cfg.Documents.Extensions = []string{".pdf", ".docx", ".txt", ".md", ".xlsx"}
	}
}
