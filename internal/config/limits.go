package config

const (
	// MaxFolderNameLength is the maximum length for a single folder name.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for a file's original name.
	MaxFileNameLength = 255

	// MaxFolderPathLength bounds a materialized folder path. Deeper trees than
	// this are rejected at create/move time.
	MaxFolderPathLength = 1000

	// MaxFolderDepth bounds ancestor walks over parent pointers. The stored
	// tree is never deeper; a longer walk means corrupted parent links.
	MaxFolderDepth = 256

	// DefaultMaxUploadBytes caps a single upload (512 MiB).
	DefaultMaxUploadBytes = 512 << 20

	// DefaultFileName is used when an upload carries no usable name.
	DefaultFileName = "upload.bin"
)
