package constants

// Application constants - single source of truth for naming throughout the codebase
const (
	// Core application identity
	AppName        = "Hub Hooks"
	BinaryName     = "hubhooks"
	ProjectTagline = "Script dispatch for DC hubs"

	// Module and repository
	ModulePath    = "github.com/klauern/hubhooks"
	RepositoryURL = "https://github.com/klauern/hubhooks"

	// Configuration files
	ConfigDirName    = BinaryName
	ConfigFileName   = "config.yml"
	DefaultStoreFile = "hubhooks.db"
	DefaultLogFile   = "hubhooks.log"

	// Source layout
	InternalHooksDir = "internal/hooks"

	// Dispatcher defaults
	DefaultAdminClass    = 10 // master
	DefaultCommandMarker = "!"
	DefaultCommandWord   = "dispatcher"
	DefaultPriority      = 100

	// Environment variable prefix for overrides
	EnvPrefix = "HUBHOOKS_"
)
