package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	WelcomeMessage = "Welcome to 📚 Chat with your PDF, please ask a question about your document"

	AppTitle = "📚 Chat with your PDF"
)

// Chunking
const (
	PDFChunkSize    = 1000
	PDFChunkOverlap = 150
	PDFMimeType     = "application/pdf"
)

// Vector store backends
const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	DefaultBackend = BackendLocal

	BackendLabelLocal  = "Local (in-memory)"
	BackendLabelRemote = "Remote (PostgreSQL)"

	// Every remote build deletes all rows of this table before inserting.
	RemoteTableName = "zchatdata"
	RemoteDBPort    = 5432
	RemoteDBName    = "postgres"
	RemoteSSLMode   = "require"
)

// Model gateway
const (
	GatewayProviderOpenAI = "openai"
	GatewayProviderOllama = "ollama"

	EmbeddingModel = "text-embedding-3-small"
	LLMModel       = "gpt-4o"
	LLMTemperature = 0.0
	LLMMaxTokens   = 1000
)

// Retrieval and memory
const (
	RetrieverTopK   = 6
	HistoryMaxTurns = 10
)

// Notices shown to the user
const (
	NoticeUploadOK         = "PDF successfully uploaded!"
	NoticeInvalidFile      = "Invalid PDF file. Please upload a valid PDF."
	NoticeProcessedFmt     = "PDF processed successfully using %s!"
	NoticeProcessFailedFmt = "An error occurred while processing the PDF with %s. Please try again."
	NoticeExtractionFailed = "The PDF could not be read. Please upload a different file."
	NoticeIndexingFailed   = "The document could not be indexed with %s. Please try again."
	NoticeGenerationFailed = "The assistant could not answer right now. Please try again."
	NoticeSessionBusy      = "Your previous request is still running."
)

func BackendLabel(backend string) string {
	if backend == BackendRemote {
		return BackendLabelRemote
	}
	return BackendLabelLocal
}

// In-process event bus
const (
	PipelineEventTopic = "pipeline.events"
	EmbeddingCacheTTL  = 24 * 60 * 60 // seconds
)
