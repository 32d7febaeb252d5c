package vault

// FolderPermission is an explicit grant for one user on one folder scope.
// A nil FolderID addresses the project root scope. A grant with both flags
// false is never stored.
type FolderPermission struct {
	ID        string  `json:"id" db:"id"`
	ProjectID string  `json:"project_id" db:"project_id"`
	FolderID  *string `json:"folder_id" db:"folder_id"`
	UserID    string  `json:"user_id" db:"user_id"`
	CanRead   bool    `json:"can_read" db:"can_read"`
	CanWrite  bool    `json:"can_write" db:"can_write"`
}

// Access is the effective read/write capability after inheritance resolution
type Access struct {
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
}

var (
	FullAccess = Access{CanRead: true, CanWrite: true}
	NoAccess   = Access{}
)

// Member is a project member as reported by the access gate
type Member struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// MemberGrant is a project member merged with their explicit grant on a scope
type MemberGrant struct {
	Member
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
}

// GrantOutcome reports what a grant call did to the stored rows
type GrantOutcome string

const (
	GrantCreated   GrantOutcome = "created"
	GrantUpdated   GrantOutcome = "updated"
	GrantDeleted   GrantOutcome = "deleted"
	GrantUnchanged GrantOutcome = "unchanged"
)
