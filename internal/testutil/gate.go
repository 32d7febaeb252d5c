package testutil

import (
	"context"
	"sort"
	"sync"

	models "filevault/internal/domain/models/vault"
)

// Gate is an in-memory access gate
type Gate struct {
	mu      sync.Mutex
	members map[string]map[string]models.Member
	admins  map[string]bool
}

// NewGate creates an access gate without members or admins
func NewGate() *Gate {
	return &Gate{
		members: make(map[string]map[string]models.Member),
		admins:  make(map[string]bool),
	}
}

// AddMember adds a user to a project
func (g *Gate) AddMember(projectID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.members[projectID] == nil {
		g.members[projectID] = make(map[string]models.Member)
	}
	g.members[projectID][userID] = models.Member{
		UserID: userID,
		Name:   userID,
		Email:  userID + "@example.com",
	}
}

// SetAdmin marks a user as admin
func (g *Gate) SetAdmin(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.admins[userID] = true
}

func (g *Gate) IsMember(_ context.Context, userID, projectID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.members[projectID][userID]
	return ok, nil
}

func (g *Gate) IsAdmin(_ context.Context, userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admins[userID], nil
}

func (g *Gate) ListMembers(_ context.Context, projectID string) ([]models.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members := []models.Member{}
	for _, m := range g.members[projectID] {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}
