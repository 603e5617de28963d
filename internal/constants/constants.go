package constants

// Centralized constants for headers, env keys and the generative API.
const (
	// Environment variable keys
	EnvGenaiAPIKey = "GENAI_API_KEY"
	EnvConfigPath  = "DEATHGAME_CONFIG"

	// HTTP headers and content types
	HeaderContentType = "Content-Type"
	HeaderGenaiKey    = "X-Genai-Key"

	ContentTypeJSON = "application/json"

	CacheControlHeader  = "Cache-Control"
	CacheControlNoCache = "no-cache, no-store, must-revalidate"

	// Generative Language API endpoints and base URL
	GenaiBaseURL             = "https://generativelanguage.googleapis.com"
	GenaiGenerateContentPath = "/v1beta/models/%s:generateContent"
	GenaiKeyQueryParam       = "key"

	// Model names; overridable via the config file
	GenaiPrimaryModel  = "gemini-3-flash-preview"
	GenaiFallbackModel = "gemini-2.5-flash"
)

// Routes used by the backend router
const (
	RouteAPIPrefix          = "/api"
	RouteGames              = "/games"
	RouteGameByID           = "/games/:gameID"
	RouteGameAdvance        = "/games/:gameID/advance"
	RouteGameTypingComplete = "/games/:gameID/typing-complete"
	RouteGameVote           = "/games/:gameID/vote"
	RouteGameIntervention   = "/games/:gameID/intervention"
	RouteGameTimer          = "/games/:gameID/timer-elapsed"
	RouteResults            = "/results"
)

// Common JSON response keys
const (
	JSONKeyError  = "error"
	JSONKeyStatus = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest      = "Invalid request"
	ErrGameNotFound        = "Game not found"
	ErrGameAlreadyOver     = "Game is already over"
	ErrInvalidVoteType     = "Invalid vote type"
	ErrInvalidVoteTarget   = "Vote target is not a living agent"
	ErrVoteNotOpen         = "No user vote is being collected"
	ErrInterventionClosed  = "Intervention window is not open"
	ErrInterventionUsed    = "Intervention already used this turn"
	ErrEmptyIntervention   = "Intervention text is required"
	ErrFailedFetchResults  = "Failed to fetch results"
	ErrFailedSaveResult    = "Failed to save result"
	ErrMissingAPIKey       = "Missing generative API key"
	ErrTimerNameRequired   = "timer name is required"
	ErrTooManyParticipants = "Participant count exceeds the character pool"
)

// Logging field names
const (
	LogFieldSessionID = "session_id"
	LogFieldRound     = "round"
	LogFieldState     = "state"
	LogFieldAgent     = "agent"
	LogFieldModel     = "model"
	LogFieldEpoch     = "epoch"
	LogFieldSource    = "source"
	LogFieldKey       = "key"
	LogFieldAddr      = "addr"
	LogFieldCount     = "count"
)
